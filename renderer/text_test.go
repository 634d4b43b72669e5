// renderer/text_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/lumen2d/lumen/util"
)

func testFontAtlas() *FontAtlas {
	return &FontAtlas{
		Name: "test",
		Glyphs: map[rune]Glyph{
			'a': {
				UVTopLeft:     [2]float32{0, 1},
				UVBottomRight: [2]float32{0.5, 0},
				Size:          [2]float32{0.5, 1},
				Advance:       0.5,
			},
			'?': {
				UVTopLeft:     [2]float32{0.5, 1},
				UVBottomRight: [2]float32{1, 0},
				Size:          [2]float32{0.25, 1},
				Offset:        [2]float32{0.1, 0},
				Advance:       0.25,
			},
		},
		Ascent:  0.75,
		Descent: 0.25,
		Width:   2,
		Height:  1,
		Pixels:  []byte{0, 255},
	}
}

func TestDrawTextLayout(t *testing.T) {
	c, r := newTestContext(t, 16)
	c.SetWindowSize(2, 2)
	font, err := NewFont(r, testFontAtlas())
	if err != nil {
		t.Fatal(err)
	}

	red := RGBA{1, 0, 0, 1}
	c.Pivot([2]float32{0, 0})
	c.DrawTextModified(font, "aa\na", 1, 0, func(i int) CharacterModifier {
		if i == 3 {
			return CharacterModifier{Color: &red, Offset: [2]float32{0, 0.5}}
		}
		return CharacterModifier{}
	})
	c.Flush()

	if len(r.batches) != 1 {
		t.Fatalf("got %d batches", len(r.batches))
	}
	v := r.batches[0].Vertices
	if len(v) != 18 {
		t.Fatalf("got %d vertices, expected 18", len(v))
	}

	// The first line is on top.
	for _, test := range []struct {
		vertex int
		pos    [3]float32
	}{
		{0, [3]float32{0, 1, 0}},
		{2, [3]float32{0.5, 2, 0}},
		{6, [3]float32{0.5, 1, 0}},
		{12, [3]float32{0, 0.5, 0}},
		{17, [3]float32{0, 1.5, 0}},
	} {
		if v[test.vertex].Position != test.pos {
			t.Errorf("vertex %d at %v, expected %v", test.vertex, v[test.vertex].Position, test.pos)
		}
	}

	if v[0].Mode != DrawingModeDistanceField {
		t.Errorf("text not drawn in distance field mode")
	}
	// A line of text is one pixel tall in a 2x2 window.
	if !near(v[0].Step, DefaultSampleSize*0.01) {
		t.Errorf("distance field step %f", v[0].Step)
	}
	if v[0].Unit != 1 || r.batches[0].Textures[1] != font.Texture().Handle() {
		t.Errorf("font texture not bound")
	}
	if v[0].UV != [2]float32{0, 0} || v[2].UV != [2]float32{0.5, 1} || v[5].UV != [2]float32{0, 1} {
		t.Errorf("glyph texture coordinates %v %v %v", v[0].UV, v[2].UV, v[5].UV)
	}
	if v[0].Color != White || v[12].Color != red {
		t.Errorf("character colors %v %v", v[0].Color, v[12].Color)
	}

	// State is restored afterward.
	if c.State().Transform != DefaultState().Transform {
		t.Errorf("transform not restored")
	}
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.Flush()
	if q := r.batches[1].Vertices[0]; q.Mode != DrawingModeNormal || q.Unit != 0 {
		t.Errorf("quad after text has mode %d unit %d", q.Mode, q.Unit)
	}
}

func TestDrawTextPivotAndScale(t *testing.T) {
	c, r := newTestContext(t, 16)
	font, err := NewFont(r, testFontAtlas())
	if err != nil {
		t.Fatal(err)
	}

	c.Pivot([2]float32{0.5, 0.5})
	c.DrawText(font, "aaaa", 10, 0)
	c.Flush()

	v := r.batches[0].Vertices
	// 4 glyphs of advance 0.5 at scale 10 make a 20x10 block centered on
	// the origin.
	if bl := v[0].Position; bl != [3]float32{-10, -5, 0} {
		t.Errorf("first glyph at %v", bl)
	}
	if tr := v[len(v)-4].Position; tr != [3]float32{10, 5, 0} {
		t.Errorf("last glyph upper right at %v", tr)
	}
	if sz := TextSize(font, "aaaa", 10, 0); sz != [2]float32{20, 10} {
		t.Errorf("TextSize %v", sz)
	}
}

func TestFontMetrics(t *testing.T) {
	r := newRecordingRenderer(16)
	font, err := NewFont(r, testFontAtlas())
	if err != nil {
		t.Fatal(err)
	}

	if w := font.StringWidth("aaa\na\naaaa"); w != 2 {
		t.Errorf("StringWidth %f, expected 2", w)
	}
	// Unknown characters use '?'.
	if w := font.StringWidth("ab"); w != 0.75 {
		t.Errorf("StringWidth with fallback %f, expected 0.75", w)
	}
	if font.LineHeight() != 1 || font.SampleSize() != DefaultSampleSize {
		t.Errorf("line height %f sample size %f", font.LineHeight(), font.SampleSize())
	}

	for _, test := range []struct {
		s     string
		width float32
		fit   string
	}{
		{"aaaa", 2, "aaaa"},
		{"aaaa", 1.5, "a..."},
		{"aaaa\naa", 1.5, "a...\naa"},
		{"aaaa", 0.6, "a"},
	} {
		// '.' isn't in the font, so it's drawn with '?' and is 0.25 wide.
		if fit := font.ShrinkToFit(test.s, test.width); fit != test.fit {
			t.Errorf("ShrinkToFit(%q, %f) = %q, expected %q", test.s, test.width, fit, test.fit)
		}
	}

	h := font.Texture().Handle()
	font.Dispose()
	font.Dispose()
	if n := r.destroyed[h]; n != 1 {
		t.Errorf("font texture destroyed %d times, expected once", n)
	}
}

func TestFontAtlasValidation(t *testing.T) {
	bad := testFontAtlas()
	bad.Pixels = bad.Pixels[:1]
	bad.Ascent = -1
	g := bad.Glyphs['a']
	g.UVTopLeft[0] = 2
	bad.Glyphs['a'] = g

	err := bad.Validate()
	if !errors.Is(err, ErrInvalidFontAtlas) {
		t.Fatalf("expected ErrInvalidFontAtlas, got %v", err)
	}
	if _, err := NewFont(newRecordingRenderer(16), bad); err == nil {
		t.Errorf("NewFont accepted invalid atlas")
	}
}

func TestLoadFont(t *testing.T) {
	var buf bytes.Buffer
	if err := util.EncodeMsgpackZstd(&buf, testFontAtlas()); err != nil {
		t.Fatal(err)
	}
	util.SetResourcesFS(fstest.MapFS{"fonts/test.msgpack.zst": &fstest.MapFile{Data: buf.Bytes()}})

	font, err := LoadFont(newRecordingRenderer(16), "fonts/test.msgpack.zst")
	if err != nil {
		t.Fatal(err)
	}
	if !font.HasGlyph('a') || font.Lookup('a').Advance != 0.5 {
		t.Errorf("loaded font is missing glyphs")
	}
	if font.Texture().Format() != TextureFormatR8 || font.Texture().Size() != [2]int{2, 1} {
		t.Errorf("font texture %s %v", font.Texture().Format(), font.Texture().Size())
	}

	if _, err := LoadFont(newRecordingRenderer(16), "fonts/missing.msgpack.zst"); err == nil {
		t.Errorf("expected error loading missing font")
	}
}

func TestDefaultFont(t *testing.T) {
	atlas := DefaultFontAtlas()
	if err := atlas.Validate(); err != nil {
		t.Fatal(err)
	}
	for ch := ' '; ch <= '~'; ch++ {
		if _, ok := atlas.Glyphs[ch]; !ok {
			t.Errorf("default font is missing %q", ch)
		}
	}

	cellMax := func(ch rune) byte {
		g := atlas.Glyphs[ch]
		x0, x1 := int(g.UVTopLeft[0]*float32(atlas.Width)), int(g.UVBottomRight[0]*float32(atlas.Width))
		y0, y1 := int(g.UVBottomRight[1]*float32(atlas.Height)), int(g.UVTopLeft[1]*float32(atlas.Height))
		var m byte
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				m = max(m, atlas.Pixels[y*atlas.Width+x])
			}
		}
		return m
	}
	if m := cellMax('I'); m < 180 {
		t.Errorf("'I' has maximum distance value %d; expected it to be well inside", m)
	}
	if m := cellMax(' '); m >= 128 {
		t.Errorf("space has maximum distance value %d; expected it to be empty", m)
	}
}

func TestDistanceField(t *testing.T) {
	const n = 32
	mask := make([]byte, n*n)
	for y := 12; y < 20; y++ {
		for x := 12; x < 20; x++ {
			mask[y*n+x] = 255
		}
	}
	sdf := DistanceField(mask, n, n, 4)

	if v := sdf[16*n+16]; v != 255 {
		t.Errorf("center %d, expected 255", v)
	}
	if v := sdf[0]; v != 0 {
		t.Errorf("corner %d, expected 0", v)
	}
	in, out := sdf[16*n+12], sdf[16*n+11]
	if in < 128 || out >= 128 {
		t.Errorf("edge values %d (inside) %d (outside)", in, out)
	}
	// Distances grow by a pixel per pixel.
	if d := int(sdf[16*n+9]) - int(sdf[16*n+10]); d > -30 || d < -34 {
		t.Errorf("gradient outside %d per pixel, expected about -32", d)
	}
}
