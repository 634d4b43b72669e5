// renderer/ogl/ogl.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ogl provides a renderer.Renderer implemented with OpenGL 4.1
// core profile. All methods must be called from the thread that owns the
// GL context.
package ogl

import (
	"C"
	"errors"
	"fmt"
	"unsafe"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/math"
	"github.com/lumen2d/lumen/renderer"
	"github.com/lumen2d/lumen/util"

	"github.com/go-gl/gl/v4.1-core/gl"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrIncompleteFramebuffer = errors.New("incomplete framebuffer")

type uniformKey struct {
	program uint32
	name    string
}

type Renderer struct {
	lg *log.Logger

	maxTextureUnits int
	createdTextures map[uint32]int
	textures        map[uint32]renderer.TextureDesc
	framebuffers    map[uint32][]uint32
	programs        map[uint32]string

	vao, vbo    uint32
	vboCapacity int

	// Uniform locations are looked up lazily; most frames use a handful
	// of uniforms across a few programs.
	locations *lru.Cache[uniformKey, int32]
}

// NewRenderer initializes OpenGL; the caller must have already made an
// OpenGL 4.1 core context current.
func NewRenderer(lg *log.Logger) (*Renderer, error) {
	lg.Info("Starting OpenGL 4.1 renderer initialization")
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	vendor, rend := gl.GetString(gl.VENDOR), gl.GetString(gl.RENDERER)
	v, r := (*C.char)(unsafe.Pointer(vendor)), (*C.char)(unsafe.Pointer(rend))
	lg.Infof("OpenGL vendor %s renderer %s", C.GoString(v), C.GoString(r))

	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)

	locations, err := lru.New[uniformKey, int32](256)
	if err != nil {
		return nil, err
	}

	ogl := &Renderer{
		lg:              lg,
		maxTextureUnits: min(int(units), renderer.MaxTextureUnits),
		createdTextures: make(map[uint32]int),
		textures:        make(map[uint32]renderer.TextureDesc),
		framebuffers:    make(map[uint32][]uint32),
		programs:        make(map[uint32]string),
		locations:       locations,
	}
	lg.Infof("%d texture units available, using %d", units, ogl.maxTextureUnits)

	gl.GenVertexArrays(1, &ogl.vao)
	gl.BindVertexArray(ogl.vao)
	gl.GenBuffers(1, &ogl.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, ogl.vbo)
	setVertexAttributes()

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	ogl.check()

	lg.Info("Finished OpenGL 4.1 renderer initialization")
	return ogl, nil
}

func setVertexAttributes() {
	stride := int32(renderer.VertexSize)
	var v renderer.Vertex

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Position))))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.UV))))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Color))))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribIPointer(3, 1, gl.INT, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Unit))))
	gl.EnableVertexAttribArray(4)
	gl.VertexAttribIPointer(4, 1, gl.INT, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Mode))))
	gl.EnableVertexAttribArray(5)
	gl.VertexAttribPointer(5, 1, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Step))))
}

// check logs any pending GL error along with the location of the caller.
func (ogl *Renderer) check() {
	if err := gl.GetError(); err != gl.NO_ERROR {
		if frames := log.Callstack(1); len(frames) > 0 {
			ogl.lg.Errorf("%s: GL error 0x%x", frames[0], err)
		} else {
			ogl.lg.Errorf("GL error 0x%x", err)
		}
	}
}

func (ogl *Renderer) MaxTextureUnits() int {
	return ogl.maxTextureUnits
}

func (ogl *Renderer) Dispose() {
	for id := range ogl.framebuffers {
		gl.DeleteFramebuffers(1, &id)
	}
	for texid := range ogl.createdTextures {
		gl.DeleteTextures(1, &texid)
	}
	for id := range ogl.programs {
		gl.DeleteProgram(id)
	}
	clear(ogl.framebuffers)
	clear(ogl.createdTextures)
	clear(ogl.textures)
	clear(ogl.programs)
	ogl.locations.Purge()

	gl.DeleteBuffers(1, &ogl.vbo)
	gl.DeleteVertexArrays(1, &ogl.vao)
	ogl.vbo, ogl.vao = 0, 0
}

///////////////////////////////////////////////////////////////////////////
// Textures

func (ogl *Renderer) createdTexture(texid uint32, bytes int) {
	_, exists := ogl.createdTextures[texid]

	ogl.createdTextures[texid] = bytes

	reduce := func(id uint32, bytes int, total int) int { return total + bytes }
	total := util.ReduceMap[uint32, int, int](ogl.createdTextures, reduce, 0)
	mb := float32(total) / (1024 * 1024)

	if exists {
		ogl.lg.Debugf("Updated tex id %d: %d bytes -> %.2f MiB of textures total", texid, bytes, mb)
	} else {
		ogl.lg.Infof("Created tex id %d: %d bytes -> %.2f MiB of textures total", texid, bytes, mb)
	}
}

func (ogl *Renderer) CreateTexture(desc renderer.TextureDesc, pixels []byte) (uint32, error) {
	if err := desc.Validate(); err != nil {
		return 0, err
	}
	if pixels != nil && len(pixels) != desc.UploadSize() {
		return 0, fmt.Errorf("%w: %d bytes of pixel data for %dx%d %s", renderer.ErrInvalidTexture,
			len(pixels), desc.Width, desc.Height, desc.Format)
	}
	gf, ok := glFormats[desc.Format]
	if !ok {
		return 0, fmt.Errorf("%w: %s", renderer.ErrUnsupportedFormat, desc.Format)
	}

	var lastTexture int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &lastTexture)

	var texid uint32
	gl.GenTextures(1, &texid)
	gl.BindTexture(gl.TEXTURE_2D, texid)

	minFilter, magFilter := glFilters(desc.Filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.TexImage2D(gl.TEXTURE_2D, 0, gf.internal, int32(desc.Width), int32(desc.Height), 0,
		gf.format, gf.xtype, pixelPointer(pixels))
	if desc.MipLevels() > 1 {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	gl.BindTexture(gl.TEXTURE_2D, uint32(lastTexture))
	ogl.check()

	ogl.textures[texid] = desc
	ogl.createdTexture(texid, desc.GPUSize())
	return texid, nil
}

func (ogl *Renderer) UpdateTexture(id uint32, pixels []byte) error {
	desc, ok := ogl.textures[id]
	if !ok {
		return fmt.Errorf("%w: unknown texture %d", renderer.ErrInvalidTexture, id)
	}
	if len(pixels) != desc.UploadSize() {
		return fmt.Errorf("%w: %d bytes of pixel data for %dx%d %s", renderer.ErrInvalidTexture,
			len(pixels), desc.Width, desc.Height, desc.Format)
	}
	gf := glFormats[desc.Format]

	var lastTexture int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &lastTexture)

	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(desc.Width), int32(desc.Height), gf.format, gf.xtype,
		pixelPointer(pixels))
	if desc.MipLevels() > 1 {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	gl.BindTexture(gl.TEXTURE_2D, uint32(lastTexture))
	ogl.check()

	ogl.createdTexture(id, desc.GPUSize())
	return nil
}

func (ogl *Renderer) DestroyTexture(texid uint32) {
	if _, ok := ogl.createdTextures[texid]; !ok {
		return
	}
	gl.DeleteTextures(1, &texid)
	delete(ogl.createdTextures, texid)
	delete(ogl.textures, texid)
}

func pixelPointer(pixels []byte) unsafe.Pointer {
	if len(pixels) == 0 {
		return nil
	}
	return unsafe.Pointer(&pixels[0])
}

///////////////////////////////////////////////////////////////////////////
// Framebuffers

func (ogl *Renderer) CreateFramebuffer(attachments []uint32) (uint32, error) {
	if len(attachments) == 0 {
		return 0, fmt.Errorf("%w: no attachments", renderer.ErrInvalidFramebuffer)
	}

	var lastFramebuffer int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &lastFramebuffer)

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	drawBuffers := make([]uint32, len(attachments))
	for i, texid := range attachments {
		if _, ok := ogl.textures[texid]; !ok {
			gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(lastFramebuffer))
			gl.DeleteFramebuffers(1, &fbo)
			return 0, fmt.Errorf("%w: attachment %d is not a texture", renderer.ErrInvalidFramebuffer, texid)
		}
		drawBuffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, drawBuffers[i], gl.TEXTURE_2D, texid, 0)
	}
	gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(lastFramebuffer))
	ogl.check()

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("%w: status 0x%x", ErrIncompleteFramebuffer, status)
	}

	ogl.framebuffers[fbo] = append([]uint32(nil), attachments...)
	ogl.lg.Debugf("Created framebuffer %d with %d attachments", fbo, len(attachments))
	return fbo, nil
}

func (ogl *Renderer) DestroyFramebuffer(id uint32) {
	if _, ok := ogl.framebuffers[id]; !ok {
		return
	}
	gl.DeleteFramebuffers(1, &id)
	delete(ogl.framebuffers, id)
}

func (ogl *Renderer) BindFramebuffer(id uint32, width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, id)
	gl.Viewport(0, 0, int32(width), int32(height))
	ogl.check()
}

func (ogl *Renderer) Clear(c renderer.RGBA) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (ogl *Renderer) SetSRGB(enable bool) {
	if enable {
		gl.Enable(gl.FRAMEBUFFER_SRGB)
	} else {
		gl.Disable(gl.FRAMEBUFFER_SRGB)
	}
}

///////////////////////////////////////////////////////////////////////////
// Programs

func (ogl *Renderer) CreateProgram(p *renderer.Program) (uint32, error) {
	fragment := defineTextureUnits(p.Source, ogl.maxTextureUnits)
	prog, err := newProgram(renderer.VertexShaderSource, fragment)
	if prog == 0 {
		return 0, err
	}
	ogl.programs[prog] = p.Name

	if err == nil {
		// Each sampler in the array reads from the texture unit with the
		// same index.
		var lastProgram int32
		gl.GetIntegerv(gl.CURRENT_PROGRAM, &lastProgram)
		gl.UseProgram(prog)
		for i := range ogl.maxTextureUnits {
			if loc := ogl.uniformLocation(prog, fmt.Sprintf("uTextures[%d]", i)); loc >= 0 {
				gl.Uniform1i(loc, int32(i))
			}
		}
		gl.UseProgram(uint32(lastProgram))
	}
	ogl.check()

	return prog, err
}

func (ogl *Renderer) DestroyProgram(id uint32) {
	if _, ok := ogl.programs[id]; !ok {
		return
	}
	gl.DeleteProgram(id)
	delete(ogl.programs, id)

	// GL may hand out the same name again.
	for _, k := range ogl.locations.Keys() {
		if k.program == id {
			ogl.locations.Remove(k)
		}
	}
}

func (ogl *Renderer) uniformLocation(prog uint32, name string) int32 {
	key := uniformKey{program: prog, name: name}
	if loc, ok := ogl.locations.Get(key); ok {
		return loc
	}
	loc := gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
	ogl.locations.Add(key, loc)
	return loc
}

func (ogl *Renderer) setUniform(prog uint32, name string, value any) {
	loc := ogl.uniformLocation(prog, name)
	if loc < 0 {
		return
	}

	switch v := value.(type) {
	case int32:
		gl.Uniform1i(loc, v)
	case int:
		gl.Uniform1i(loc, int32(v))
	case bool:
		gl.Uniform1i(loc, util.Select[int32](v, 1, 0))
	case float32:
		gl.Uniform1f(loc, v)
	case [2]float32:
		gl.Uniform2f(loc, v[0], v[1])
	case [4]float32:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case renderer.RGBA:
		gl.Uniform4f(loc, v.R, v.G, v.B, v.A)
	case math.Matrix4:
		// Matrix4 is row-major.
		gl.UniformMatrix4fv(loc, 1, true, &v[0][0])
	default:
		ogl.lg.Warnf("%s: uniform %q has unsupported type %T", ogl.programs[prog], name, value)
	}
}

///////////////////////////////////////////////////////////////////////////
// Drawing

func (ogl *Renderer) Draw(b *renderer.Batch) renderer.RendererStats {
	if len(b.Vertices) == 0 || b.Program == nil || b.Program.Handle() == 0 {
		return renderer.RendererStats{}
	}

	prog := b.Program.Handle()
	gl.UseProgram(prog)
	ogl.setUniform(prog, "uProjection", b.Projection)
	for _, name := range util.SortedMapKeys(b.Uniforms) {
		ogl.setUniform(prog, name, b.Uniforms[name])
	}

	binds := 0
	for unit := range ogl.maxTextureUnits {
		var texid uint32
		if unit < len(b.Textures) {
			texid = b.Textures[unit]
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, texid)
		if texid != 0 {
			binds++
		}
	}
	gl.ActiveTexture(gl.TEXTURE0)

	gl.BindVertexArray(ogl.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, ogl.vbo)
	nBytes := len(b.Vertices) * renderer.VertexSize
	if nBytes > ogl.vboCapacity {
		// Orphan and grow; later batches reuse the allocation.
		gl.BufferData(gl.ARRAY_BUFFER, nBytes, unsafe.Pointer(&b.Vertices[0]), gl.STREAM_DRAW)
		ogl.vboCapacity = nBytes
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, nBytes, unsafe.Pointer(&b.Vertices[0]))
	}

	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(b.Vertices)))
	ogl.check()

	return renderer.MakeBatchStats(b, binds)
}
