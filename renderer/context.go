// renderer/context.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/math"
)

// VertexBufferCapacity is the number of vertices a Context accumulates
// before it submits them to the Renderer; it's a multiple of three so
// that automatic submission always happens between triangles.
const VertexBufferCapacity = 25000 * 3

type PrimitiveMode int

const (
	PrimitiveNone PrimitiveMode = iota
	PrimitiveTriangles
	PrimitiveLines
	PrimitiveLineStrip
	PrimitiveLineLoop
)

func (m PrimitiveMode) String() string {
	switch m {
	case PrimitiveNone:
		return "none"
	case PrimitiveTriangles:
		return "triangles"
	case PrimitiveLines:
		return "lines"
	case PrimitiveLineStrip:
		return "line strip"
	case PrimitiveLineLoop:
		return "line loop"
	default:
		return fmt.Sprintf("PrimitiveMode(%d)", int(m))
	}
}

// State is the drawing state saved and restored by Push and Pop.
type State struct {
	Transform        math.Matrix4
	InverseTransform math.Matrix4
	Pivot            [2]float32
	UV               [2]float32
	Color            RGBA
	Alpha            float32
}

func DefaultState() State {
	return State{
		Transform:        math.Identity4x4(),
		InverseTransform: math.Identity4x4(),
		Pivot:            [2]float32{0.5, 0.5},
		Color:            White,
		Alpha:            1,
	}
}

type lineVertex struct {
	pos   [3]float32
	color RGBA
}

// Context is an immediate-mode 2D drawing context. Drawing calls are
// transformed by the current state as they are made and accumulated into
// a fixed-size vertex buffer that is submitted to the Renderer when it
// fills, when more textures are needed than there are free texture units,
// when the program or its uniforms change, and when Flush is called.
//
// A Context is not safe for concurrent use; all calls should be made from
// the thread that owns the graphics context.
type Context struct {
	r  Renderer
	lg *log.Logger

	stack []State

	projection    math.Matrix4
	invProjection math.Matrix4
	windowSize    [2]int

	vertices  []Vertex
	nVertices int

	primitive    PrimitiveMode
	primVertices int
	lines        []lineVertex
	lineWidth    float32

	drawingMode DrawingMode
	dfStep      float32

	slots textureSlots
	unit  int32
	white *Texture

	defaultProgram *Program
	program        *Program
	uniforms       Uniforms

	batch Batch
	stats RendererStats
}

// NewContext creates a drawing context that submits to the given renderer.
// If the default program fails to compile, the error is logged and the
// context is still returned.
func NewContext(r Renderer, lg *log.Logger) (*Context, error) {
	n := min(r.MaxTextureUnits(), MaxTextureUnits)
	if n < 2 {
		return nil, fmt.Errorf("renderer supports %d texture units; at least 2 are required", n)
	}

	white, err := NewTexture(r, TextureDesc{Format: TextureFormatRGBA8, Width: 1, Height: 1, Filter: FilterNearest},
		[]byte{255, 255, 255, 255})
	if err != nil {
		return nil, fmt.Errorf("white texture: %w", err)
	}

	prog, _ := NewProgram(r, lg, "default", DefaultProgramSource, ShadeDefault)

	c := &Context{
		r:              r,
		lg:             lg,
		vertices:       make([]Vertex, VertexBufferCapacity),
		lines:          make([]lineVertex, 0, 256),
		white:          white,
		defaultProgram: prog,
		slots:          makeTextureSlots(n, white.Handle()),
		windowSize:     [2]int{1, 1},
	}
	c.Reset()

	lg.Info("Created rendering context", slog.Int("texture_units", n),
		slog.Int("vertex_capacity", VertexBufferCapacity))

	return c, nil
}

func (c *Context) Renderer() Renderer { return c.r }

// Reset returns the context to its initial state: a single default state
// on the stack, an identity projection, the default program, and an empty
// vertex buffer and texture slot table. Any pending geometry is discarded.
func (c *Context) Reset() {
	c.stack = append(c.stack[:0], DefaultState())
	c.projection, c.invProjection = math.Identity4x4(), math.Identity4x4()
	c.nVertices = 0
	c.primitive, c.primVertices = PrimitiveNone, 0
	c.lines = c.lines[:0]
	c.lineWidth = 1
	c.drawingMode, c.dfStep = DrawingModeNormal, 0
	c.slots.reset()
	c.unit = 0
	c.program, c.uniforms = c.defaultProgram, nil
}

func (c *Context) Dispose() {
	c.white.Dispose()
	c.defaultProgram.Dispose()
}

///////////////////////////////////////////////////////////////////////////
// State stack

func (c *Context) top() *State {
	return &c.stack[len(c.stack)-1]
}

// Push saves a copy of the current state; it must be matched by a call to
// Pop.
func (c *Context) Push() {
	c.stack = append(c.stack, *c.top())
}

func (c *Context) Pop() {
	if len(c.stack) == 1 {
		panic("Pop: unbalanced Push/Pop; the state stack would be empty")
	}
	c.stack = c.stack[:len(c.stack)-1]
}

// With calls f with the current state saved and restores it afterward.
func (c *Context) With(f func()) {
	c.Push()
	defer c.Pop()
	f()
}

// State returns a copy of the current state.
func (c *Context) State() State {
	return *c.top()
}

func (c *Context) StackDepth() int {
	return len(c.stack)
}

///////////////////////////////////////////////////////////////////////////
// Transformations

// The inverse transform is maintained alongside the transform by applying
// each operation's inverse on the other side, so that
// Transform*InverseTransform remains the identity.

func (c *Context) Translate(t [2]float32) {
	s := c.top()
	s.Transform = s.Transform.Translate(t[0], t[1], 0)
	s.InverseTransform = math.Identity4x4().Translate(-t[0], -t[1], 0).PostMultiply(s.InverseTransform)
}

// Rotate rotates counter-clockwise by the given angle in radians.
func (c *Context) Rotate(angle float32) {
	s := c.top()
	s.Transform = s.Transform.Rotate(angle)
	s.InverseTransform = math.Identity4x4().Rotate(-angle).PostMultiply(s.InverseTransform)
}

// Scale applies a non-uniform scale; the scale factors must be non-zero
// for the inverse transform to be meaningful.
func (c *Context) Scale(v [2]float32) {
	s := c.top()
	s.Transform = s.Transform.Scale(v[0], v[1], 1)
	s.InverseTransform = math.Identity4x4().Scale(1/v[0], 1/v[1], 1).PostMultiply(s.InverseTransform)
}

func (c *Context) ScaleUniform(v float32) {
	c.Scale([2]float32{v, v})
}

func (c *Context) LoadIdentity() {
	s := c.top()
	s.Transform, s.InverseTransform = math.Identity4x4(), math.Identity4x4()
}

///////////////////////////////////////////////////////////////////////////
// Style

func (c *Context) Color(col RGBA) {
	c.top().Color = col
}

// Pivot sets the anchor used to position quads and text relative to their
// bounding box: (0,0) is the lower left corner and (1,1) the upper right.
func (c *Context) Pivot(p [2]float32) {
	c.requireNoPrimitive("Pivot")
	c.top().Pivot = p
}

// UV sets the texture coordinate given to subsequent vertices.
func (c *Context) UV(uv [2]float32) {
	c.top().UV = uv
}

// GlobalAlpha multiplies the current alpha, which scales the alpha of all
// subsequent vertices.
func (c *Context) GlobalAlpha(a float32) {
	c.top().Alpha *= a
}

// LineWidth sets the distance that stroked lines extend on either side of
// their centerline.
func (c *Context) LineWidth(w float32) {
	c.lineWidth = w
}

func (c *Context) CurrentLineWidth() float32 {
	return c.lineWidth
}

///////////////////////////////////////////////////////////////////////////
// Primitive assembly

func (c *Context) requireNoPrimitive(op string) {
	if c.primitive != PrimitiveNone {
		panic(fmt.Sprintf("%s: not allowed between Begin(%s) and End", op, c.primitive))
	}
}

func (c *Context) Begin(mode PrimitiveMode) {
	if mode == PrimitiveNone {
		panic("Begin: invalid primitive mode")
	}
	if c.primitive != PrimitiveNone {
		panic(fmt.Sprintf("Begin(%s): %s primitive has not been ended", mode, c.primitive))
	}
	c.primitive, c.primVertices = mode, 0
}

func (c *Context) Vertex(p [2]float32) {
	c.Vertex3([3]float32{p[0], p[1], 0})
}

func (c *Context) Vertex3(p [3]float32) {
	switch c.primitive {
	case PrimitiveNone:
		panic("Vertex: called outside of Begin/End")
	case PrimitiveTriangles:
		s := c.top()
		c.emit(p, s.UV, s.Color)
	default:
		c.lines = append(c.lines, lineVertex{pos: p, color: c.top().Color})
	}
}

func (c *Context) End() {
	switch c.primitive {
	case PrimitiveNone:
		panic("End: called without Begin")
	case PrimitiveTriangles:
		if c.primVertices%3 != 0 {
			panic(fmt.Sprintf("End: %d vertices do not make whole triangles", c.primVertices))
		}
	default:
		c.strokeLines()
	}
	c.lines = c.lines[:0]
	c.primitive, c.primVertices = PrimitiveNone, 0
}

// emit transforms p by the current transform and appends it to the vertex
// buffer. The buffer is submitted as soon as it is full, without touching
// the texture slot table, so that a draw in progress continues with the
// same texture units.
func (c *Context) emit(p [3]float32, uv [2]float32, col RGBA) {
	s := c.top()
	col.A *= s.Alpha
	c.vertices[c.nVertices] = Vertex{
		Position: s.Transform.TransformPoint(p),
		UV:       uv,
		Color:    col,
		Unit:     c.unit,
		Mode:     c.drawingMode,
		Step:     c.dfStep,
	}
	c.nVertices++
	c.primVertices++

	if c.nVertices == len(c.vertices) {
		c.submit()
	}
}

// PendingVertices returns the number of vertices that have not yet been
// submitted to the renderer.
func (c *Context) PendingVertices() int {
	return c.nVertices
}

///////////////////////////////////////////////////////////////////////////
// Submission

func (c *Context) submit() {
	if c.nVertices == 0 {
		return
	}
	c.batch = Batch{
		Program:    c.program,
		Projection: c.projection,
		Vertices:   c.vertices[:c.nVertices],
		Textures:   c.slots.units,
		Uniforms:   c.uniforms,
	}
	st := c.r.Draw(&c.batch)
	c.stats.Merge(st)
	c.batch = Batch{}
	c.nVertices = 0
}

func (c *Context) requireWholeTriangles(op string) {
	if c.primitive == PrimitiveTriangles && c.primVertices%3 != 0 {
		panic(fmt.Sprintf("%s: not allowed in the middle of a triangle", op))
	}
}

// Flush draws all pending geometry and then resets the texture slot table
// so that only the white texture is bound.
func (c *Context) Flush() {
	c.requireWholeTriangles("Flush")
	c.submit()
	c.slots.reset()
	c.unit = 0
}

// Stats returns statistics about everything drawn since the last call to
// ResetStats.
func (c *Context) Stats() RendererStats {
	return c.stats
}

func (c *Context) ResetStats() {
	c.stats = RendererStats{}
}

///////////////////////////////////////////////////////////////////////////
// Textures

// Texture binds t to a texture unit for the current batch and makes it
// the texture used by subsequent vertices. It returns the unit. If all
// units are in use, pending geometry is flushed first.
func (c *Context) Texture(t *Texture) int32 {
	id := t.Handle()
	if id == 0 {
		panic("Texture: texture has been disposed")
	}

	slot := c.slots.acquire(id)
	if slot < 0 {
		c.Flush()
		// A flush frees all units but the white one, of which there is
		// always at least one more.
		if slot = c.slots.acquire(id); slot < 0 {
			panic("Texture: no free texture unit after flush")
		}
	}
	c.unit = int32(slot)
	return c.unit
}

// Textures binds all of the given textures to units in the same batch,
// flushing first if there aren't enough free units for them all. This
// should be used when a program samples from more than one texture, since
// separate calls to Texture may flush between bindings. The returned units
// correspond to the given textures; the last of them becomes the current
// texture. It panics if more textures are given than the context has
// units to bind them to.
func (c *Context) Textures(ts ...*Texture) []int32 {
	var distinct []uint32
	unbound := 0
	for _, t := range ts {
		id := t.Handle()
		if id == 0 {
			panic("Textures: texture has been disposed")
		}
		if containsHandle(distinct, id) {
			continue
		}
		distinct = append(distinct, id)
		if c.slots.find(id) < 0 {
			unbound++
		}
	}
	if len(distinct) > len(c.slots.units)-1 {
		panic(fmt.Sprintf("Textures: %d distinct textures cannot be bound at once; only %d units available",
			len(distinct), len(c.slots.units)-1))
	}
	if unbound > c.slots.free() {
		c.Flush()
	}

	units := make([]int32, len(ts))
	for i, t := range ts {
		units[i] = int32(c.slots.acquire(t.Handle()))
	}
	if len(units) > 0 {
		c.unit = units[len(units)-1]
	}
	return units
}

func containsHandle(ids []uint32, id uint32) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

// NoTexture makes subsequent vertices use the white texture; it does not
// change which textures are bound.
func (c *Context) NoTexture() {
	c.unit = 0
}

// BoundTextures returns a copy of the texture slot table.
func (c *Context) BoundTextures() []uint32 {
	return append([]uint32(nil), c.slots.units...)
}

// TextureUnits returns the number of texture units the context uses.
func (c *Context) TextureUnits() int {
	return len(c.slots.units)
}

///////////////////////////////////////////////////////////////////////////
// Programs

// UseProgram selects the program used for subsequent geometry; pending
// geometry is drawn with the previous program first. Uniform values are
// cleared when the program changes.
func (c *Context) UseProgram(p *Program) {
	if p == c.program {
		return
	}
	c.requireWholeTriangles("UseProgram")
	c.submit()
	c.program, c.uniforms = p, nil
}

func (c *Context) DefaultProgram() {
	c.UseProgram(c.defaultProgram)
}

func (c *Context) CurrentProgram() *Program {
	return c.program
}

// Uniform sets a uniform value for the current program. Uniforms apply to
// a whole batch, so pending geometry is drawn first.
func (c *Context) Uniform(name string, v any) {
	c.requireWholeTriangles("Uniform")
	c.submit()
	// Copy so that earlier batches are unaffected.
	u := maps.Clone(c.uniforms)
	if u == nil {
		u = make(Uniforms)
	}
	u[name] = v
	c.uniforms = u
}

///////////////////////////////////////////////////////////////////////////
// Projection and render targets

// SetProjection sets the projection that is applied to all geometry when
// it is drawn. Pending geometry is drawn with the previous projection. An
// error is returned if the matrix is not invertible.
func (c *Context) SetProjection(m math.Matrix4) error {
	inv, err := m.Inverse()
	if err != nil {
		return fmt.Errorf("SetProjection: %w", err)
	}
	c.requireWholeTriangles("SetProjection")
	c.submit()
	c.projection, c.invProjection = m, inv
	return nil
}

// Ortho sets an orthographic projection that maps [0,width]x[0,height] to
// the viewport.
func (c *Context) Ortho(width, height float32) error {
	return c.SetProjection(math.Identity4x4().Ortho(0, width, 0, height, -1, 1))
}

func (c *Context) Projection() math.Matrix4 { return c.projection }

func (c *Context) InverseProjection() math.Matrix4 { return c.invProjection }

// ViewportBounds returns the points that the lower-left and upper-right
// corners of the viewport map to under the current projection.
func (c *Context) ViewportBounds() (bl, tr [2]float32) {
	bl = c.invProjection.TransformPoint2([2]float32{-1, -1})
	tr = c.invProjection.TransformPoint2([2]float32{1, 1})
	return
}

// ProjectionSize returns the size of the region covered by the viewport
// under the current projection.
func (c *Context) ProjectionSize() [2]float32 {
	bl, tr := c.ViewportBounds()
	return math.Sub2f(tr, bl)
}

// SetWindowSize records the size of the window's framebuffer in pixels;
// it's used when rendering returns to the window and to compute the
// on-screen size of text.
func (c *Context) SetWindowSize(w, h int) {
	c.windowSize = [2]int{max(1, w), max(1, h)}
}

func (c *Context) WindowSize() [2]int { return c.windowSize }

// BindFramebuffer draws pending geometry and then directs subsequent
// drawing to fb.
func (c *Context) BindFramebuffer(fb *Framebuffer) {
	c.Flush()
	fb.Bind()
}

// UnbindFramebuffer draws pending geometry and then directs subsequent
// drawing to the window.
func (c *Context) UnbindFramebuffer() {
	c.Flush()
	c.r.BindFramebuffer(0, c.windowSize[0], c.windowSize[1])
}

// Clear draws pending geometry and then clears the current render target.
func (c *Context) Clear(col RGBA) {
	c.requireWholeTriangles("Clear")
	c.submit()
	c.r.Clear(col)
}

func (c *Context) SetSRGB(enable bool) {
	c.r.SetSRGB(enable)
}
