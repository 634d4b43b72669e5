// renderer/text.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"strings"

	"github.com/lumen2d/lumen/math"
)

// CharacterModifier adjusts how a single character of a string is drawn.
type CharacterModifier struct {
	Offset [2]float32
	// Scale multiplies the glyph's size; the zero value is treated as 1.
	Scale float32
	// Color, if non-nil, is used in place of the current color.
	Color *RGBA
}

// CharacterModifierFunc is called with the index of each character in the
// string (counting runes, including line breaks).
type CharacterModifierFunc func(index int) CharacterModifier

// DrawText draws a string using the given distance-field font; "\n" starts a
// new line. Text is drawn in font units scaled by scale, with lineGap
// additional units between lines, and is placed relative to the origin
// according to the current pivot and the bounding box of the whole
// string.
func (c *Context) DrawText(font *Font, text string, scale, lineGap float32) {
	c.DrawTextModified(font, text, scale, lineGap, nil)
}

// DrawTextModified is like DrawText but calls modify for each character so
// that characters may be individually offset, scaled, and colored.
func (c *Context) DrawTextModified(font *Font, text string, scale, lineGap float32, modify CharacterModifierFunc) {
	c.requireNoPrimitive("DrawText")

	// The pixel size of a line of text determines how wide the
	// antialiased edge is in distance-field units.
	v := c.projection.PostMultiply(c.top().Transform).Transform4([4]float32{0, scale, 0, 0})
	ws := c.windowSize
	screenSize := math.Length2f([2]float32{v[0] * float32(ws[0]) / 2, v[1] * float32(ws[1]) / 2})
	if screenSize == 0 {
		return
	}

	fontSize := font.LineHeight()
	lineCount := strings.Count(text, "\n") + 1
	height := float32(lineCount)*fontSize + float32(lineCount-1)*lineGap
	width := font.StringWidth(text)

	c.Texture(font.Texture())

	c.Push()
	c.ScaleUniform(scale)

	s := c.top()
	lineSpacing := fontSize + lineGap
	startX := -s.Pivot[0] * width
	x := startX
	// Start with the top line and work down.
	y := -s.Pivot[1]*height + lineSpacing*float32(lineCount-1)

	c.drawingMode = DrawingModeDistanceField
	c.dfStep = font.SampleSize() / screenSize * 0.01

	c.primitive = PrimitiveTriangles
	index := 0
	for _, ch := range text {
		if ch == '\n' {
			x = startX
			y -= lineSpacing
			index++
			continue
		}

		g := font.Lookup(ch)
		mod := CharacterModifier{Scale: 1}
		if modify != nil {
			mod = modify(index)
			if mod.Scale == 0 {
				mod.Scale = 1
			}
		}
		index++

		col := s.Color
		if mod.Color != nil {
			col = *mod.Color
		}

		x0 := x + g.Offset[0] + mod.Offset[0]
		y0 := y + g.Offset[1] + mod.Offset[1]
		x1, y1 := x0+g.Size[0]*mod.Scale, y0+g.Size[1]*mod.Scale

		bl, br := [3]float32{x0, y0, 0}, [3]float32{x1, y0, 0}
		tr, tl := [3]float32{x1, y1, 0}, [3]float32{x0, y1, 0}
		uvBL := [2]float32{g.UVTopLeft[0], g.UVBottomRight[1]}
		uvBR := [2]float32{g.UVBottomRight[0], g.UVBottomRight[1]}
		uvTR := [2]float32{g.UVBottomRight[0], g.UVTopLeft[1]}
		uvTL := [2]float32{g.UVTopLeft[0], g.UVTopLeft[1]}

		c.emit(bl, uvBL, col)
		c.emit(br, uvBR, col)
		c.emit(tr, uvTR, col)
		c.emit(bl, uvBL, col)
		c.emit(tr, uvTR, col)
		c.emit(tl, uvTL, col)

		x += g.Advance
	}
	c.primitive, c.primVertices = PrimitiveNone, 0

	c.drawingMode, c.dfStep = DrawingModeNormal, 0
	c.Pop()
	c.NoTexture()
}

// TextSize returns the size of the bounding box of the given text when drawn
// with DrawText at the given scale.
func TextSize(font *Font, text string, scale, lineGap float32) [2]float32 {
	lineCount := float32(strings.Count(text, "\n") + 1)
	h := lineCount*font.LineHeight() + (lineCount-1)*lineGap
	return [2]float32{font.StringWidth(text) * scale, h * scale}
}
