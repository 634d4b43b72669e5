// renderer/software.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	gomath "math"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/math"
)

// SoftwareRenderer is a Renderer that rasterizes on the CPU, running each
// program's FragmentFunc in place of its GLSL source. It follows OpenGL's
// conventions closely enough that the two produce matching images: pixel
// centers are sampled, shared triangle edges are drawn once, textures are
// sampled with clamp-to-edge addressing, and row 0 of both textures and
// the window is at the bottom.
//
// All textures are stored as floating-point RGBA; values written to
// 8-bit textures and the window are clamped and quantized.
type SoftwareRenderer struct {
	lg    *log.Logger
	units int

	nextID       uint32
	textures     map[uint32]*softTexture
	framebuffers map[uint32][]uint32
	programs     map[uint32]*Program

	window   *softTexture
	targets  []*softTexture
	viewport [2]int
	srgb     bool
}

type softTexture struct {
	desc TextureDesc
	pix  []RGBA
}

func (t *softTexture) quantized() bool {
	return !t.desc.Format.IsFloat()
}

// NewSoftwareRenderer returns a SoftwareRenderer whose window is
// width x height pixels.
func NewSoftwareRenderer(lg *log.Logger, width, height int) *SoftwareRenderer {
	sr := &SoftwareRenderer{
		lg:           lg,
		units:        16,
		textures:     make(map[uint32]*softTexture),
		framebuffers: make(map[uint32][]uint32),
		programs:     make(map[uint32]*Program),
	}
	sr.ResizeWindow(width, height)
	lg.Infof("Software renderer: %dx%d window, %d texture units", width, height, sr.units)
	return sr
}

// SetMaxTextureUnits changes the number of texture units reported by
// MaxTextureUnits; it must be called before a Context is created.
func (sr *SoftwareRenderer) SetMaxTextureUnits(n int) {
	sr.units = n
}

// ResizeWindow reallocates the window framebuffer; its contents are lost.
func (sr *SoftwareRenderer) ResizeWindow(width, height int) {
	width, height = max(1, width), max(1, height)
	sr.window = &softTexture{
		desc: TextureDesc{Format: TextureFormatRGBA8, Width: width, Height: height, Filter: FilterNearest},
		pix:  make([]RGBA, width*height),
	}
	sr.targets = []*softTexture{sr.window}
	sr.viewport = [2]int{width, height}
}

func (sr *SoftwareRenderer) WindowSize() [2]int {
	return [2]int{sr.window.desc.Width, sr.window.desc.Height}
}

func (sr *SoftwareRenderer) MaxTextureUnits() int {
	return sr.units
}

func (sr *SoftwareRenderer) newID() uint32 {
	sr.nextID++
	return sr.nextID
}

///////////////////////////////////////////////////////////////////////////
// Resources

func (sr *SoftwareRenderer) CreateTexture(desc TextureDesc, pixels []byte) (uint32, error) {
	if err := desc.Validate(); err != nil {
		return 0, err
	}
	if err := desc.checkPixels(pixels); err != nil {
		return 0, err
	}
	id := sr.newID()
	sr.textures[id] = &softTexture{desc: desc, pix: decodeTexels(desc, pixels)}
	return id, nil
}

func (sr *SoftwareRenderer) UpdateTexture(id uint32, pixels []byte) error {
	t, ok := sr.textures[id]
	if !ok {
		return fmt.Errorf("%w: unknown texture %d", ErrInvalidTexture, id)
	}
	if err := t.desc.checkPixels(pixels); err != nil {
		return err
	}
	t.pix = decodeTexels(t.desc, pixels)
	return nil
}

func (sr *SoftwareRenderer) DestroyTexture(id uint32) {
	if _, ok := sr.textures[id]; !ok {
		sr.lg.Warnf("%d: destroying unknown texture", id)
		return
	}
	delete(sr.textures, id)
}

// decodeTexels converts pixel data in the given format to RGBA. Missing
// channels are 0, except for alpha, which is 1.
func decodeTexels(desc TextureDesc, pixels []byte) []RGBA {
	pix := make([]RGBA, desc.Width*desc.Height)
	if pixels == nil {
		return pix
	}

	nc := desc.Format.Channels()
	channel := func(i int) float32 {
		if desc.Format.IsFloat() {
			return gomath.Float32frombits(binary.LittleEndian.Uint32(pixels[4*i:]))
		}
		return float32(pixels[i]) / 255
	}

	for i := range pix {
		c := RGBA{A: 1}
		c.R = channel(i * nc)
		if nc >= 3 {
			c.G, c.B = channel(i*nc+1), channel(i*nc+2)
		}
		if nc == 4 {
			c.A = channel(i*nc + 3)
		}
		pix[i] = c
	}
	return pix
}

func (sr *SoftwareRenderer) CreateFramebuffer(attachments []uint32) (uint32, error) {
	if len(attachments) == 0 {
		return 0, fmt.Errorf("%w: no attachments", ErrInvalidFramebuffer)
	}
	for _, a := range attachments {
		if _, ok := sr.textures[a]; !ok {
			return 0, fmt.Errorf("%w: unknown attachment texture %d", ErrInvalidFramebuffer, a)
		}
	}
	id := sr.newID()
	sr.framebuffers[id] = append([]uint32(nil), attachments...)
	return id, nil
}

func (sr *SoftwareRenderer) DestroyFramebuffer(id uint32) {
	delete(sr.framebuffers, id)
}

func (sr *SoftwareRenderer) BindFramebuffer(id uint32, width, height int) {
	sr.viewport = [2]int{width, height}
	if id == 0 {
		sr.targets = []*softTexture{sr.window}
		return
	}

	sr.targets = sr.targets[:0:0]
	for _, a := range sr.framebuffers[id] {
		if t, ok := sr.textures[a]; ok {
			sr.targets = append(sr.targets, t)
		}
	}
	if len(sr.targets) == 0 {
		sr.lg.Errorf("%d: binding unknown or incomplete framebuffer", id)
	}
}

func (sr *SoftwareRenderer) CreateProgram(p *Program) (uint32, error) {
	id := sr.newID()
	sr.programs[id] = p
	if p.Shade == nil {
		return id, fmt.Errorf("no fragment function provided")
	}
	return id, nil
}

func (sr *SoftwareRenderer) DestroyProgram(id uint32) {
	delete(sr.programs, id)
}

func (sr *SoftwareRenderer) SetSRGB(enable bool) {
	sr.srgb = enable
}

func (sr *SoftwareRenderer) Clear(c RGBA) {
	for _, t := range sr.targets {
		v := c
		if t.quantized() {
			v = quantize(c)
		}
		for i := range t.pix {
			t.pix[i] = v
		}
	}
}

func (sr *SoftwareRenderer) Dispose() {
	sr.lg.Infof("Software renderer: releasing %d textures, %d framebuffers, %d programs",
		len(sr.textures), len(sr.framebuffers), len(sr.programs))
	clear(sr.textures)
	clear(sr.framebuffers)
	clear(sr.programs)
}

///////////////////////////////////////////////////////////////////////////
// Rasterization

type softSampler struct {
	textures []*softTexture
}

func (s *softSampler) texture(unit int32) *softTexture {
	if unit < 0 || int(unit) >= len(s.textures) {
		return nil
	}
	return s.textures[unit]
}

func (s *softSampler) TextureSize(unit int32) [2]int {
	if t := s.texture(unit); t != nil {
		return [2]int{t.desc.Width, t.desc.Height}
	}
	return [2]int{0, 0}
}

func (s *softSampler) Sample(unit int32, uv [2]float32) RGBA {
	t := s.texture(unit)
	if t == nil {
		return Black
	}
	w, h := t.desc.Width, t.desc.Height
	texel := func(x, y int) RGBA {
		return t.pix[math.Clamp(y, 0, h-1)*w+math.Clamp(x, 0, w-1)]
	}

	if t.desc.Filter == FilterNearest {
		return texel(int(math.Floor(uv[0]*float32(w))), int(math.Floor(uv[1]*float32(h))))
	}

	// Bilinear between the four nearest texel centers.
	fx, fy := uv[0]*float32(w)-0.5, uv[1]*float32(h)-0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)
	bottom := LerpRGBA(tx, texel(ix, iy), texel(ix+1, iy))
	top := LerpRGBA(tx, texel(ix, iy+1), texel(ix+1, iy+1))
	return LerpRGBA(ty, bottom, top)
}

func quantize(c RGBA) RGBA {
	q := func(v float32) float32 {
		return math.Floor(math.Clamp(v, 0, 1)*255+0.5) / 255
	}
	return RGBA{R: q(c.R), G: q(c.G), B: q(c.B), A: q(c.A)}
}

// edge returns twice the signed area of the triangle (a, b, p); it's
// positive when p is to the left of the directed line from a to b.
func edge(a, b, p [2]float32) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// topLeft reports whether the edge from a to b of a counter-clockwise
// triangle is a top or left edge; pixels exactly on those edges are
// drawn and pixels on the others are not.
func topLeft(a, b [2]float32) bool {
	return (a[1] == b[1] && b[0] < a[0]) || b[1] < a[1]
}

func (sr *SoftwareRenderer) Draw(b *Batch) RendererStats {
	if len(sr.targets) == 0 || len(b.Vertices) == 0 {
		return RendererStats{}
	}
	if b.Program == nil || b.Program.Shade == nil {
		sr.lg.Errorf("Draw: batch has no usable program")
		return RendererStats{}
	}

	sampler := &softSampler{textures: make([]*softTexture, len(b.Textures))}
	binds := 0
	for i, id := range b.Textures {
		if id != 0 {
			sampler.textures[i] = sr.textures[id]
			binds++
		}
	}

	target := sr.targets[0]
	vw := min(sr.viewport[0], target.desc.Width)
	vh := min(sr.viewport[1], target.desc.Height)

	toScreen := func(v *Vertex) [2]float32 {
		p := b.Projection.Transform4([4]float32{v.Position[0], v.Position[1], v.Position[2], 1})
		if p[3] != 0 && p[3] != 1 {
			p[0], p[1] = p[0]/p[3], p[1]/p[3]
		}
		return [2]float32{(p[0] + 1) / 2 * float32(sr.viewport[0]), (p[1] + 1) / 2 * float32(sr.viewport[1])}
	}

	for t := 0; t+2 < len(b.Vertices); t += 3 {
		v := [3]*Vertex{&b.Vertices[t], &b.Vertices[t+1], &b.Vertices[t+2]}
		p := [3][2]float32{toScreen(v[0]), toScreen(v[1]), toScreen(v[2])}

		area := edge(p[0], p[1], p[2])
		if area == 0 {
			continue
		}
		if area < 0 {
			// Make it counter-clockwise.
			v[1], v[2] = v[2], v[1]
			p[1], p[2] = p[2], p[1]
			area = -area
		}

		x0 := max(0, int(math.Floor(min(p[0][0], p[1][0], p[2][0]))))
		x1 := min(vw-1, int(math.Ceil(max(p[0][0], p[1][0], p[2][0]))))
		y0 := max(0, int(math.Floor(min(p[0][1], p[1][1], p[2][1]))))
		y1 := min(vh-1, int(math.Ceil(max(p[0][1], p[1][1], p[2][1]))))

		tl := [3]bool{topLeft(p[1], p[2]), topLeft(p[2], p[0]), topLeft(p[0], p[1])}
		// Flat attributes come from the last vertex of the triangle as
		// submitted, which isn't moved by the reordering above.
		last := &b.Vertices[t+2]

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
				w := [3]float32{edge(p[1], p[2], c), edge(p[2], p[0], c), edge(p[0], p[1], c)}
				if (w[0] < 0 || (w[0] == 0 && !tl[0])) ||
					(w[1] < 0 || (w[1] == 0 && !tl[1])) ||
					(w[2] < 0 || (w[2] == 0 && !tl[2])) {
					continue
				}
				w[0], w[1], w[2] = w[0]/area, w[1]/area, w[2]/area

				f := Fragment{
					UV: [2]float32{
						w[0]*v[0].UV[0] + w[1]*v[1].UV[0] + w[2]*v[2].UV[0],
						w[0]*v[0].UV[1] + w[1]*v[1].UV[1] + w[2]*v[2].UV[1],
					},
					Color: v[0].Color.Scale(w[0]).Add(v[1].Color.Scale(w[1])).Add(v[2].Color.Scale(w[2])),
					Unit:  last.Unit,
					Mode:  last.Mode,
					Step:  last.Step,
				}
				src := b.Program.Shade(&f, b.Uniforms, sampler)

				i := y*target.desc.Width + x
				dst := target.pix[i]
				out := RGBA{
					R: src.R*src.A + dst.R*(1-src.A),
					G: src.G*src.A + dst.G*(1-src.A),
					B: src.B*src.A + dst.B*(1-src.A),
					A: src.A*src.A + dst.A*(1-src.A),
				}
				if target.quantized() {
					out = quantize(out)
				}
				target.pix[i] = out
			}
		}
	}

	return MakeBatchStats(b, binds)
}

///////////////////////////////////////////////////////////////////////////
// Readback

// TexturePixels returns the contents of a texture, bottom row first.
func (sr *SoftwareRenderer) TexturePixels(id uint32) ([]RGBA, [2]int, error) {
	t, ok := sr.textures[id]
	if !ok {
		return nil, [2]int{}, fmt.Errorf("%w: unknown texture %d", ErrInvalidTexture, id)
	}
	return append([]RGBA(nil), t.pix...), [2]int{t.desc.Width, t.desc.Height}, nil
}

// WindowPixels returns the contents of the window, bottom row first.
func (sr *SoftwareRenderer) WindowPixels() []RGBA {
	return append([]RGBA(nil), sr.window.pix...)
}

// Image returns the window's contents as an image, sRGB-encoded if sRGB
// output has been enabled.
func (sr *SoftwareRenderer) Image() *image.NRGBA {
	return toImage(sr.window, sr.srgb)
}

// TextureImage returns the contents of a texture as an image; values are
// clamped to [0,1].
func (sr *SoftwareRenderer) TextureImage(id uint32) (*image.NRGBA, error) {
	t, ok := sr.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown texture %d", ErrInvalidTexture, id)
	}
	return toImage(t, false), nil
}

func toImage(t *softTexture, srgb bool) *image.NRGBA {
	w, h := t.desc.Width, t.desc.Height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	conv := func(v float32) uint8 {
		v = math.Clamp(v, 0, 1)
		if srgb {
			v = linearToSRGB(v)
		}
		return uint8(v*255 + 0.5)
	}
	for y := range h {
		for x := range w {
			c := t.pix[y*w+x]
			// Images have row 0 at the top.
			img.SetNRGBA(x, h-1-y, color.NRGBA{R: conv(c.R), G: conv(c.G), B: conv(c.B), A: conv(c.A)})
		}
	}
	return img
}

func linearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}
