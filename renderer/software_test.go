// renderer/software_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"testing"
)

func newSoftwareContext(t *testing.T, w, h int) (*Context, *SoftwareRenderer) {
	t.Helper()
	sr := NewSoftwareRenderer(nil, w, h)
	c, err := NewContext(sr, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	c.SetWindowSize(w, h)
	if err := c.Ortho(float32(w), float32(h)); err != nil {
		t.Fatal(err)
	}
	return c, sr
}

func TestSoftwareFill(t *testing.T) {
	c, sr := newSoftwareContext(t, 8, 4)
	c.Clear(Black)

	c.Pivot([2]float32{0, 0})
	c.Color(RGBA{1, 0, 0, 1})
	c.Quad([2]float32{0, 0}, [2]float32{4, 4})
	c.Flush()

	pix := sr.WindowPixels()
	for y := range 4 {
		for x := range 8 {
			p := pix[y*8+x]
			if x < 4 && p != (RGBA{1, 0, 0, 1}) {
				t.Errorf("(%d,%d): %v, expected red", x, y, p)
			} else if x >= 4 && p != Black {
				t.Errorf("(%d,%d): %v, expected black", x, y, p)
			}
		}
	}
}

func TestSoftwareSharedEdges(t *testing.T) {
	// Pixels along the diagonal shared by a quad's two triangles must
	// only be blended once.
	c, sr := newSoftwareContext(t, 16, 16)
	c.Clear(Black)
	c.Pivot([2]float32{0, 0})
	c.Color(RGBA{1, 1, 1, 0.5})
	c.Quad([2]float32{0, 0}, [2]float32{16, 16})
	c.Flush()

	expected := quantize(RGBA{0.5, 0.5, 0.5, 0.75})
	for i, p := range sr.WindowPixels() {
		if p != expected {
			t.Fatalf("pixel %d: %v, expected %v", i, p, expected)
		}
	}
}

func TestSoftwareTextureSampling(t *testing.T) {
	c, sr := newSoftwareContext(t, 2, 2)

	// A 2x2 texture with row 0 at the bottom.
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	tex, err := NewTexture(sr, TextureDesc{Format: TextureFormatRGBA8, Width: 2, Height: 2, Filter: FilterNearest}, pix)
	if err != nil {
		t.Fatal(err)
	}

	c.Clear(Black)
	c.Pivot([2]float32{0, 0})
	c.Texture(tex)
	c.Quad([2]float32{0, 0}, [2]float32{2, 2})
	c.Flush()

	win := sr.WindowPixels()
	for i, expected := range []RGBA{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}, {1, 1, 1, 1}} {
		if win[i] != expected {
			t.Errorf("pixel %d: %v, expected %v", i, win[i], expected)
		}
	}

	// Images have the top row first.
	img := sr.Image()
	if c := img.NRGBAAt(0, 0); c.B != 255 || c.R != 0 {
		t.Errorf("image top left %v, expected blue", c)
	}
}

func TestSoftwareBilinear(t *testing.T) {
	sr := NewSoftwareRenderer(nil, 1, 1)
	id, err := sr.CreateTexture(TextureDesc{Format: TextureFormatR8, Width: 2, Height: 1, Filter: FilterLinear},
		[]byte{0, 255})
	if err != nil {
		t.Fatal(err)
	}
	s := &softSampler{textures: []*softTexture{nil, sr.textures[id]}}

	for _, test := range []struct {
		u, expected float32
	}{
		{0, 0}, {0.25, 0}, {0.5, 0.5}, {0.75, 1}, {1, 1},
	} {
		if v := s.Sample(1, [2]float32{test.u, 0.5}); !near(v.R, test.expected) || v.A != 1 {
			t.Errorf("u=%f: %v, expected r=%f", test.u, v, test.expected)
		}
	}
	if v := s.Sample(0, [2]float32{0.5, 0.5}); v != Black {
		t.Errorf("unbound unit sampled %v", v)
	}
	if sz := s.TextureSize(1); sz != [2]int{2, 1} {
		t.Errorf("texture size %v", sz)
	}
}

func TestSoftwareDistanceField(t *testing.T) {
	u := Uniforms{}
	s := &softSampler{textures: []*softTexture{
		{desc: TextureDesc{Format: TextureFormatR8, Width: 1, Height: 1}, pix: []RGBA{{0.9, 0, 0, 1}}},
		{desc: TextureDesc{Format: TextureFormatR8, Width: 1, Height: 1}, pix: []RGBA{{0.1, 0, 0, 1}}},
	}}

	inside := ShadeDefault(&Fragment{Color: White, Unit: 0, Mode: DrawingModeDistanceField, Step: 0.1}, u, s)
	outside := ShadeDefault(&Fragment{Color: White, Unit: 1, Mode: DrawingModeDistanceField, Step: 0.1}, u, s)
	if inside.A != 1 || outside.A != 0 {
		t.Errorf("distance field alpha inside %f outside %f", inside.A, outside.A)
	}
}

func TestSoftwareFramebuffer(t *testing.T) {
	c, sr := newSoftwareContext(t, 4, 4)
	fb, err := NewFramebuffer(sr, []TextureFormat{TextureFormatRGBA32F}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	c.BindFramebuffer(fb)
	if err := c.SetProjection(DefaultState().Transform); err != nil {
		t.Fatal(err)
	}
	c.Clear(RGBA{2, 0, 0, 1})
	c.UnbindFramebuffer()

	pix, sz, err := sr.TexturePixels(fb.Attachment(0).Handle())
	if err != nil {
		t.Fatal(err)
	}
	if sz != [2]int{2, 2} || pix[0].R != 2 {
		t.Errorf("float framebuffer contents %v (size %v); expected unclamped values", pix[0], sz)
	}
	if sr.viewport != [2]int{4, 4} || sr.targets[0] != sr.window {
		t.Errorf("window not rebound")
	}
}
