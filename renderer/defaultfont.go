// renderer/defaultfont.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"sync"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// The built-in font is made from the 7x13 bitmap face in x/image, with each
// font pixel blown up to a block of atlas pixels before the distance
// field is computed. It's blocky, but it's always available.
const (
	defaultFontScale  = 8
	defaultFontPad    = 8
	defaultFontSpread = 8
	defaultFontCols   = 16
)

var defaultFont struct {
	once  sync.Once
	atlas *FontAtlas
}

// DefaultFontAtlas returns the atlas for the built-in font covering
// printable ASCII. The atlas is computed once and shared; it must not be
// modified.
func DefaultFontAtlas() *FontAtlas {
	defaultFont.once.Do(func() { defaultFont.atlas = makeDefaultFontAtlas() })
	return defaultFont.atlas
}

func NewDefaultFont(r Renderer) (*Font, error) {
	return NewFont(r, DefaultFontAtlas())
}

func makeDefaultFontAtlas() *FontAtlas {
	face := basicfont.Face7x13
	const first, last = ' ', '~'

	cellW := face.Advance*defaultFontScale + 2*defaultFontPad
	cellH := face.Height*defaultFontScale + 2*defaultFontPad
	nGlyphs := int(last - first + 1)
	rows := (nGlyphs + defaultFontCols - 1) / defaultFontCols
	w, h := defaultFontCols*cellW, rows*cellH

	units := float32(face.Height)
	atlas := &FontAtlas{
		Name:       "basicfont 7x13",
		Glyphs:     make(map[rune]Glyph),
		Ascent:     float32(face.Ascent) / units,
		Descent:    float32(face.Descent) / units,
		SampleSize: float32(face.Height * defaultFontScale),
		Width:      w,
		Height:     h,
	}

	mask := make([]byte, w*h)
	for ch := rune(first); ch <= last; ch++ {
		gi := int(ch - first)
		x0, y0 := (gi%defaultFontCols)*cellW, (gi/defaultFontCols)*cellH

		dr, m, mp, _, ok := face.Glyph(fixed.P(0, face.Ascent), ch)
		if !ok {
			continue
		}
		for py := dr.Min.Y; py < dr.Max.Y; py++ {
			for px := dr.Min.X; px < dr.Max.X; px++ {
				if px < 0 || px >= face.Advance || py < 0 || py >= face.Height {
					continue
				}
				if _, _, _, a := m.At(mp.X+px-dr.Min.X, mp.Y+py-dr.Min.Y).RGBA(); a < 0x8000 {
					continue
				}
				// Atlas rows go bottom to top.
				ax := x0 + defaultFontPad + px*defaultFontScale
				ay := y0 + defaultFontPad + (face.Height-1-py)*defaultFontScale
				for sy := range defaultFontScale {
					row := mask[(ay+sy)*w:]
					for sx := range defaultFontScale {
						row[ax+sx] = 255
					}
				}
			}
		}

		atlas.Glyphs[ch] = Glyph{
			UVTopLeft:     [2]float32{float32(x0) / float32(w), float32(y0+cellH) / float32(h)},
			UVBottomRight: [2]float32{float32(x0+cellW) / float32(w), float32(y0) / float32(h)},
			Size:          [2]float32{float32(cellW) / atlas.SampleSize, float32(cellH) / atlas.SampleSize},
			Offset:        [2]float32{-defaultFontPad / atlas.SampleSize, -defaultFontPad / atlas.SampleSize},
			Advance:       float32(face.Advance) / units,
		}
	}

	atlas.Pixels = DistanceField(mask, w, h, defaultFontSpread)
	return atlas
}
