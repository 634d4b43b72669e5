// renderer/font.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lumen2d/lumen/util"
)

// DefaultSampleSize is the pixel size glyphs are assumed to have been
// rasterized at when a font atlas doesn't specify one.
const DefaultSampleSize = 128

var ErrInvalidFontAtlas = errors.New("invalid font atlas")

// Glyph gives the metrics of a character in a FontAtlas. Sizes, offsets
// and advances are in font units, where the ascent plus descent is the
// height of a line of text. The offset is from the pen position at the
// bottom of the line to the lower-left corner of the glyph's quad.
type Glyph struct {
	UVTopLeft     [2]float32
	UVBottomRight [2]float32
	Size          [2]float32
	Offset        [2]float32
	Advance       float32
}

// FontAtlas is the serialized form of a distance-field font: glyph
// metrics and a single-channel atlas image. Pixel rows are stored bottom
// row first, so that texture coordinates have v increasing upward; a
// glyph's UVTopLeft therefore has the larger v.
//
// Atlases are stored as msgpack, optionally zstd-compressed.
type FontAtlas struct {
	Name       string
	Glyphs     map[rune]Glyph
	Ascent     float32
	Descent    float32
	SampleSize float32
	Width      int
	Height     int
	Pixels     []byte
}

func (a *FontAtlas) Validate() error {
	var e util.ErrorLogger
	e.Push(a.Name)
	defer e.Pop()

	if len(a.Glyphs) == 0 {
		e.ErrorString("no glyphs")
	}
	if a.Ascent+a.Descent <= 0 {
		e.ErrorString("ascent %f + descent %f must be positive", a.Ascent, a.Descent)
	}
	if a.SampleSize < 0 {
		e.ErrorString("negative sample size %f", a.SampleSize)
	}
	if a.Width <= 0 || a.Height <= 0 {
		e.ErrorString("invalid atlas size %dx%d", a.Width, a.Height)
	} else if len(a.Pixels) != a.Width*a.Height {
		e.ErrorString("%d bytes of pixel data given for %dx%d atlas", len(a.Pixels), a.Width, a.Height)
	}

	for ch, g := range a.Glyphs {
		for _, uv := range [][2]float32{g.UVTopLeft, g.UVBottomRight} {
			if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
				e.Push(fmt.Sprintf("%q", ch))
				e.ErrorString("texture coordinates %v outside of [0,1]", uv)
				e.Pop()
				break
			}
		}
	}

	return e.Err(ErrInvalidFontAtlas)
}

///////////////////////////////////////////////////////////////////////////
// Font

// Font is a distance-field font whose atlas has been uploaded to a
// renderer.
type Font struct {
	Name       string
	ascent     float32
	descent    float32
	sampleSize float32
	glyphs     map[rune]Glyph
	fallback   Glyph
	texture    *Texture
}

// NewFont validates the atlas and creates its texture.
func NewFont(r Renderer, atlas *FontAtlas) (*Font, error) {
	if err := atlas.Validate(); err != nil {
		return nil, err
	}

	tex, err := NewTexture(r, TextureDesc{
		Format: TextureFormatR8,
		Width:  atlas.Width,
		Height: atlas.Height,
		Filter: FilterLinear,
	}, atlas.Pixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", atlas.Name, err)
	}

	f := &Font{
		Name:       atlas.Name,
		ascent:     atlas.Ascent,
		descent:    atlas.Descent,
		sampleSize: atlas.SampleSize,
		glyphs:     atlas.Glyphs,
		texture:    tex,
	}
	if f.sampleSize == 0 {
		f.sampleSize = DefaultSampleSize
	}
	if g, ok := f.glyphs['?']; ok {
		f.fallback = g
	}
	return f, nil
}

// LoadFont loads a font atlas from the resources directory; ".zst" files
// are decompressed.
func LoadFont(r Renderer, path string) (*Font, error) {
	rd, err := util.LoadResource(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	var atlas FontAtlas
	if err := util.DecodeMsgpack(rd, &atlas); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if atlas.Name == "" {
		atlas.Name = path
	}
	return NewFont(r, &atlas)
}

func (f *Font) Texture() *Texture { return f.texture }

func (f *Font) Ascent() float32     { return f.ascent }
func (f *Font) Descent() float32    { return f.descent }
func (f *Font) SampleSize() float32 { return f.sampleSize }

// LineHeight returns the height of a line of text, in font units.
func (f *Font) LineHeight() float32 {
	return f.ascent + f.descent
}

// Lookup returns the glyph for the given character; characters that
// aren't in the font are drawn using the glyph for '?', if there is one,
// and are otherwise invisible and take no space.
func (f *Font) Lookup(ch rune) Glyph {
	if g, ok := f.glyphs[ch]; ok {
		return g
	}
	return f.fallback
}

func (f *Font) HasGlyph(ch rune) bool {
	_, ok := f.glyphs[ch]
	return ok
}

// StringWidth returns the width of the widest line of s, in font units.
func (f *Font) StringWidth(s string) float32 {
	var width, lineWidth float32
	for _, ch := range s {
		if ch == '\n' {
			lineWidth = 0
			continue
		}
		lineWidth += f.Lookup(ch).Advance
		width = max(width, lineWidth)
	}
	return width
}

// ShrinkToFit truncates each line of s so that it is no wider than
// maxWidth, ending truncated lines with "..." when that fits.
func (f *Font) ShrinkToFit(s string, maxWidth float32) string {
	lines := strings.Split(s, "\n")
	ellipsis := f.StringWidth("...")

	for i, line := range lines {
		if f.StringWidth(line) <= maxWidth {
			continue
		}

		limit, suffix := maxWidth-ellipsis, "..."
		if limit < 0 {
			limit, suffix = maxWidth, ""
		}

		var w float32
		end := 0
		for j, ch := range line {
			w += f.Lookup(ch).Advance
			if w > limit {
				break
			}
			end = j + utf8.RuneLen(ch)
		}
		lines[i] = line[:end] + suffix
	}
	return strings.Join(lines, "\n")
}

func (f *Font) Dispose() {
	f.texture.Dispose()
}
