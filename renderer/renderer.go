// renderer/renderer.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/lumen2d/lumen/math"
)

// Renderer defines the GPU device that a Context submits its batches to.
// There are two implementations: ogl.Renderer, which uses OpenGL 4.1, and
// SoftwareRenderer, which rasterizes on the CPU and is used for headless
// rendering and for tests. Handles returned by a Renderer are opaque and
// only meaningful to the Renderer that returned them; zero is never a
// valid handle.
type Renderer interface {
	// MaxTextureUnits returns the number of textures a single draw call
	// is able to sample from.
	MaxTextureUnits() int

	// CreateTexture returns a handle for a new texture described by desc.
	// If pixels is non-nil, it must hold desc.Width*desc.Height tightly
	// packed texels in desc.Format.
	CreateTexture(desc TextureDesc, pixels []byte) (uint32, error)

	// UpdateTexture replaces the contents of an existing texture; the
	// texture's size and format are not changed.
	UpdateTexture(id uint32, pixels []byte) error

	// DestroyTexture frees the resources associated with the given texture.
	DestroyTexture(id uint32)

	// CreateFramebuffer returns a handle for a framebuffer that renders to
	// the given color attachments, in order.
	CreateFramebuffer(attachments []uint32) (uint32, error)

	DestroyFramebuffer(id uint32)

	// BindFramebuffer makes the given framebuffer the render target and
	// sets the viewport to cover width x height pixels. Framebuffer 0 is
	// the window.
	BindFramebuffer(id uint32, width, height int)

	// CreateProgram compiles the given program. If compilation fails, a
	// handle is still returned along with the error; drawing with it will
	// not produce correct results.
	CreateProgram(p *Program) (uint32, error)

	DestroyProgram(id uint32)

	// Clear fills the current render target with the given color.
	Clear(c RGBA)

	// SetSRGB enables or disables sRGB encoding of the output.
	SetSRGB(enable bool)

	// Draw renders the triangles in the batch, returning statistics about
	// what was drawn.
	Draw(b *Batch) RendererStats

	// Dispose releases all resources allocated by the renderer.
	Dispose()
}

// DrawingMode selects how the default program shades a vertex.
type DrawingMode int32

const (
	DrawingModeNormal DrawingMode = iota
	DrawingModeDistanceField
)

// Vertex is the vertex layout shared by all programs. Positions have
// already been transformed by the model transform; the projection is
// applied when the batch is drawn.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
	Color    RGBA
	Unit     int32
	Mode     DrawingMode
	Step     float32
}

// Batch is the unit of work handed to a Renderer: a set of triangles that
// are drawn with a single draw call.
type Batch struct {
	Program    *Program
	Projection math.Matrix4
	Vertices   []Vertex
	// Textures gives the texture bound to each texture unit; 0 is unbound.
	Textures []uint32
	Uniforms Uniforms
}

// RendererStats encapsulates assorted statistics from rendering.
type RendererStats struct {
	nDrawCalls    int
	nVertices     int
	nTriangles    int
	nTextureBinds int
	nUploadBytes  int
}

func (rs *RendererStats) String() string {
	return fmt.Sprintf("%d draw calls: %d vertices, %d tris, %d texture binds, %.2f MB uploaded",
		rs.nDrawCalls, rs.nVertices, rs.nTriangles, rs.nTextureBinds, float32(rs.nUploadBytes)/(1024*1024))
}

func (rs *RendererStats) Merge(s RendererStats) {
	rs.nDrawCalls += s.nDrawCalls
	rs.nVertices += s.nVertices
	rs.nTriangles += s.nTriangles
	rs.nTextureBinds += s.nTextureBinds
	rs.nUploadBytes += s.nUploadBytes
}

// DrawCalls returns the number of draw calls issued.
func (rs RendererStats) DrawCalls() int { return rs.nDrawCalls }

// Vertices returns the number of vertices drawn.
func (rs RendererStats) Vertices() int { return rs.nVertices }

// MakeBatchStats returns the statistics for drawing b with one draw call;
// it's provided for Renderer implementations outside of this package.
func MakeBatchStats(b *Batch, textureBinds int) RendererStats {
	return RendererStats{
		nDrawCalls:    1,
		nVertices:     len(b.Vertices),
		nTriangles:    len(b.Vertices) / 3,
		nTextureBinds: textureBinds,
		nUploadBytes:  len(b.Vertices) * VertexSize,
	}
}

func (rs RendererStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("draw_calls", rs.nDrawCalls),
		slog.Int("vertices", rs.nVertices),
		slog.Int("tris", rs.nTriangles),
		slog.Int("texture_binds", rs.nTextureBinds),
		slog.Int("upload_bytes", rs.nUploadBytes),
	)
}

// VertexSize is the size in bytes of a Vertex, as uploaded to the GPU.
const VertexSize = int(unsafe.Sizeof(Vertex{}))
