// cmd/sdfbake/bake.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"slices"

	"github.com/lumen2d/lumen/math"
	"github.com/lumen2d/lumen/renderer"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/sync/errgroup"
)

type BakeOptions struct {
	// PixelSize is the em size that glyphs are rasterized at.
	PixelSize int
	// Spread is the distance, in pixels, over which the distance field
	// goes from fully inside to fully outside.
	Spread float32
	// AtlasWidth is the width of the atlas image; its height is whatever
	// is needed to fit all of the glyphs.
	AtlasWidth int
	Workers    int
}

func (o BakeOptions) Validate() error {
	if o.PixelSize <= 0 {
		return fmt.Errorf("pixel size %d must be positive", o.PixelSize)
	}
	if o.Spread <= 0 {
		return fmt.Errorf("spread %f must be positive", o.Spread)
	}
	if o.AtlasWidth <= 0 {
		return fmt.Errorf("atlas width %d must be positive", o.AtlasWidth)
	}
	return nil
}

// bakedGlyph is a single glyph's distance field and its metrics in pixels.
type bakedGlyph struct {
	Rune rune
	// Width and Height give the size of the distance field, which includes
	// padding of the spread on all sides. They are zero for glyphs with
	// no outline, like the space.
	Width, Height int
	// Field is stored top row first.
	Field []byte
	// Offset is from the pen position on the baseline to the lower-left
	// corner of the field, with y up.
	Offset  [2]float32
	Advance float32
}

type fontMetrics struct {
	Name string
	// Ascent and Descent are in pixels; both are positive.
	Ascent, Descent float32
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

func readMetrics(f *sfnt.Font, opts BakeOptions) (fontMetrics, error) {
	var buf sfnt.Buffer
	m, err := f.Metrics(&buf, fixed.I(opts.PixelSize), font.HintingNone)
	if err != nil {
		return fontMetrics{}, err
	}
	// Not all fonts have a name; it's only used for error messages.
	name, _ := f.Name(&buf, sfnt.NameIDFull)
	return fontMetrics{
		Name:    name,
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
	}, nil
}

// bakeGlyph rasterizes the outline of ch and computes its distance field.
// It returns false if the font has no glyph for ch.
func bakeGlyph(f *sfnt.Font, buf *sfnt.Buffer, ch rune, opts BakeOptions) (bakedGlyph, bool, error) {
	idx, err := f.GlyphIndex(buf, ch)
	if err != nil {
		return bakedGlyph{}, false, err
	} else if idx == 0 {
		return bakedGlyph{}, false, nil
	}

	ppem := fixed.I(opts.PixelSize)
	bounds, advance, err := f.GlyphBounds(buf, idx, ppem, font.HintingNone)
	if err != nil {
		return bakedGlyph{}, false, err
	}

	g := bakedGlyph{Rune: ch, Advance: fixedToFloat(advance)}
	if bounds.Empty() {
		return g, true, nil
	}

	segments, err := f.LoadGlyph(buf, idx, ppem, nil)
	if err != nil {
		return bakedGlyph{}, false, err
	}

	pad := int(math.Ceil(opts.Spread))
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	maxX, maxY := bounds.Max.X.Ceil(), bounds.Max.Y.Ceil()
	g.Width, g.Height = maxX-minX+2*pad, maxY-minY+2*pad

	// Outlines have y down from the baseline; so does the image.
	dx, dy := float32(pad-minX), float32(pad-minY)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return fixedToFloat(p.X) + dx, fixedToFloat(p.Y) + dy
	}

	r := vector.NewRasterizer(g.Width, g.Height)
	r.DrawOp = draw.Src
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			r.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			ex, ey := pt(seg.Args[2])
			r.CubeTo(bx, by, cx, cy, ex, ey)
		}
	}
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, g.Width, g.Height))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	g.Field = renderer.DistanceField(mask.Pix, g.Width, g.Height, opts.Spread)
	g.Offset = [2]float32{float32(minX - pad), float32(-maxY - pad)}
	return g, true, nil
}

// bakeGlyphs bakes the given runes in parallel. Runes that the font
// doesn't have a glyph for are skipped. The result is sorted by rune.
func bakeGlyphs(ctx context.Context, f *sfnt.Font, runes []rune, opts BakeOptions) ([]bakedGlyph, error) {
	eg, ctx := errgroup.WithContext(ctx)

	ch := make(chan int)
	eg.Go(func() error {
		defer close(ch)
		for i := range runes {
			select {
			case ch <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	baked := make([]bakedGlyph, len(runes))
	found := make([]bool, len(runes))
	for range max(1, opts.Workers) {
		eg.Go(func() error {
			// Buffers can't be shared across goroutines.
			var buf sfnt.Buffer
			for i := range ch {
				g, ok, err := bakeGlyph(f, &buf, runes[i], opts)
				if err != nil {
					return fmt.Errorf("%q: %w", runes[i], err)
				}
				baked[i], found[i] = g, ok
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var result []bakedGlyph
	for i, g := range baked {
		if found[i] {
			result = append(result, g)
		}
	}
	slices.SortFunc(result, func(a, b bakedGlyph) int { return int(a.Rune - b.Rune) })
	return result, nil
}

// placement is where a glyph's field goes in the atlas, with y up.
type placement struct {
	x, y int
}

// packGlyphs arranges the glyphs in rows of the given width, tallest
// first, and returns their positions and the resulting atlas height.
func packGlyphs(glyphs []bakedGlyph, width int) ([]placement, int, error) {
	order := make([]int, len(glyphs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return glyphs[b].Height - glyphs[a].Height })

	pos := make([]placement, len(glyphs))
	x, y, rowHeight := 0, 0, 0
	for _, i := range order {
		g := glyphs[i]
		if g.Width == 0 {
			continue
		}
		if g.Width > width {
			return nil, 0, fmt.Errorf("%q: glyph is %d pixels wide; atlas is only %d", g.Rune, g.Width, width)
		}
		if x+g.Width > width {
			x, y, rowHeight = 0, y+rowHeight, 0
		}
		pos[i] = placement{x: x, y: y}
		x += g.Width
		rowHeight = max(rowHeight, g.Height)
	}
	return pos, max(1, y+rowHeight), nil
}

// makeAtlas packs the baked glyphs into a font atlas. Metrics are
// converted to font units, where a line of text is one unit high.
func makeAtlas(metrics fontMetrics, glyphs []bakedGlyph, opts BakeOptions) (*renderer.FontAtlas, error) {
	pos, height, err := packGlyphs(glyphs, opts.AtlasWidth)
	if err != nil {
		return nil, err
	}
	width := opts.AtlasWidth

	lineHeight := metrics.Ascent + metrics.Descent
	if lineHeight <= 0 {
		return nil, fmt.Errorf("%s: font has no vertical extent", metrics.Name)
	}

	atlas := &renderer.FontAtlas{
		Name:       metrics.Name,
		Glyphs:     make(map[rune]renderer.Glyph),
		Ascent:     metrics.Ascent / lineHeight,
		Descent:    metrics.Descent / lineHeight,
		SampleSize: lineHeight,
		Width:      width,
		Height:     height,
		Pixels:     make([]byte, width*height),
	}

	for i, g := range glyphs {
		p := pos[i]
		// Atlas rows go bottom to top, fields top to bottom.
		for row := range g.Height {
			dst := atlas.Pixels[(p.y+g.Height-1-row)*width+p.x:]
			copy(dst[:g.Width], g.Field[row*g.Width:(row+1)*g.Width])
		}

		glyph := renderer.Glyph{Advance: g.Advance / lineHeight}
		if g.Width > 0 {
			glyph.UVTopLeft = [2]float32{float32(p.x) / float32(width), float32(p.y+g.Height) / float32(height)}
			glyph.UVBottomRight = [2]float32{float32(p.x+g.Width) / float32(width), float32(p.y) / float32(height)}
			glyph.Size = [2]float32{float32(g.Width) / lineHeight, float32(g.Height) / lineHeight}
			// Offsets in the atlas are from the bottom of the line rather
			// than the baseline.
			glyph.Offset = [2]float32{g.Offset[0] / lineHeight, (g.Offset[1] + metrics.Descent) / lineHeight}
		}
		atlas.Glyphs[g.Rune] = glyph
	}

	return atlas, atlas.Validate()
}
