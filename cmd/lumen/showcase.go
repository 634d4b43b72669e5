// cmd/lumen/showcase.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"image"
	"image/color"

	"github.com/lumen2d/lumen/math"
	"github.com/lumen2d/lumen/platform"
	"github.com/lumen2d/lumen/renderer"
	"github.com/lumen2d/lumen/util"
)

///////////////////////////////////////////////////////////////////////////
// showcaseScene

// showcaseScene draws a bit of everything: filled shapes, strokes,
// sprites, and text, with a few over-bright elements for the bloom to
// pick up.
type showcaseScene struct {
	env      *sceneEnv
	settings SceneSettings

	sheet   *renderer.Texture
	sprites []renderer.Sprite
}

func newShowcaseScene(env *sceneEnv, settings SceneSettings) Scene {
	return &showcaseScene{env: env, settings: settings}
}

func (s *showcaseScene) Name() string { return "showcase" }

func (s *showcaseScene) Settings() *SceneSettings { return &s.settings }

const spriteSheetCells = 4

func (s *showcaseScene) Attach(ctx *renderer.Context) error {
	img := makeSpriteSheet(spriteSheetCells, 32, s.settings.Palette)
	var err error
	if s.sheet, err = renderer.NewTextureFromImage(ctx.Renderer(), img, renderer.FilterLinear); err != nil {
		return err
	}
	s.sprites = s.sheet.SliceAll(spriteSheetCells, spriteSheetCells)
	return nil
}

func (s *showcaseScene) Detach() {
	if s.sheet != nil {
		s.sheet.Dispose()
		s.sheet = nil
	}
}

func (s *showcaseScene) color(i int) renderer.RGBA {
	return s.settings.Palette[i%len(s.settings.Palette)]
}

func (s *showcaseScene) Update(ctx *renderer.Context, t platform.Time) {
	size := ctx.ProjectionSize()
	w, h := size[0], size[1]
	unit := math.Min(w, h) / 10
	elapsed := float32(t.Elapsed)

	// Spinning quads along the bottom
	for i := range 5 {
		ctx.With(func() {
			ctx.Translate([2]float32{w * float32(i+1) / 6, unit})
			ctx.Rotate(elapsed * float32(i+1) * 0.3)
			ctx.Color(s.color(i))
			ctx.Quad([2]float32{}, [2]float32{unit, unit})
		})
	}

	// A pulsing sun that is bright enough to bloom
	ctx.With(func() {
		glow := t.SineWave(1.5, 4, 0.5)
		ctx.Color(renderer.RGBA{R: glow, G: glow * 0.8, B: glow * 0.3, A: 1})
		ctx.FillCircle([2]float32{w * 0.8, h * 0.7}, unit*0.8)
	})

	// Pie chart
	ctx.With(func() {
		center := [2]float32{w * 0.2, h * 0.65}
		from := elapsed * 0.2
		for i, frac := range []float32{0.35, 0.25, 0.2, 0.2} {
			to := from + frac*2*math.Pi()
			ctx.Color(s.color(i))
			ctx.FillArc(center, unit, from, to, 0)
			from = to
		}
	})

	// A star, filled and then outlined
	ctx.With(func() {
		star := starPoints([2]float32{w * 0.5, h * 0.6}, unit, unit*0.45, 5, elapsed*0.5)
		ctx.Color(s.color(1).WithAlpha(0.7))
		ctx.FillPolygon(star)
		ctx.Color(renderer.White)
		ctx.LineWidth(2)
		ctx.StrokePolygon(star)
	})

	// Sine wave strip
	ctx.With(func() {
		ctx.LineWidth(3)
		ctx.Begin(renderer.PrimitiveLineStrip)
		const n = 64
		for i := range n + 1 {
			x := float32(i) / n
			ctx.Color(renderer.LerpRGBA(x, s.color(3), s.color(4)))
			y := h*0.35 + unit*0.5*math.Sin(x*4*math.Pi()+elapsed*2)
			ctx.Vertex([2]float32{w * (0.1 + 0.8*x), y})
		}
		ctx.End()
	})

	// Orbiting arc
	ctx.With(func() {
		ctx.LineWidth(4)
		ctx.Color(s.color(2).RGB().Scale(2).RGBA(1))
		ctx.StrokeArc([2]float32{w * 0.8, h * 0.7}, unit*1.3, elapsed, elapsed+math.Pi(), 0)
	})

	// Animated sprites: cycle through the sheet
	ctx.With(func() {
		frame := int(elapsed*8) % len(s.sprites)
		for i := range 4 {
			sp := s.sprites[(frame+i*3)%len(s.sprites)]
			ctx.Sprite(sp, [2]float32{w * (0.35 + 0.1*float32(i)), h * 0.2}, [2]float32{unit * 0.8, unit * 0.8})
		}
	})

	// Title, with a wave running through it
	ctx.With(func() {
		ctx.Translate([2]float32{w / 2, h - unit*0.8})
		ctx.Pivot([2]float32{0.5, 0.5})
		ctx.Color(renderer.White)
		title := "lumen"
		ctx.DrawTextModified(s.env.font, title, unit, 0, func(i int) renderer.CharacterModifier {
			phase := elapsed*3 - float32(i)*0.6
			c := s.color(i)
			return renderer.CharacterModifier{
				Offset: [2]float32{0, 0.15 * math.Sin(phase)},
				Color:  &c,
			}
		})
	})
}

// starPoints returns the vertices of a star with n points.
func starPoints(center [2]float32, outer, inner float32, n int, rotation float32) [][2]float32 {
	pts := make([][2]float32, 0, 2*n)
	for i := range 2 * n {
		r := util.Select(i%2 == 0, outer, inner)
		a := rotation + float32(i)*math.Pi()/float32(n)
		pts = append(pts, math.Add2f(center, [2]float32{r * math.Cos(a), r * math.Sin(a)}))
	}
	return pts
}

// makeSpriteSheet returns an image divided into cells x cells tiles of the
// given size, each holding a differently-sized disk.
func makeSpriteSheet(cells, size int, palette []renderer.RGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cells*size, cells*size))
	for cy := range cells {
		for cx := range cells {
			idx := cy*cells + cx
			c := palette[idx%len(palette)]
			radius := float32(size) * (0.2 + 0.25*float32(idx)/float32(cells*cells))
			center := [2]float32{float32(cx*size) + float32(size)/2, float32(cy*size) + float32(size)/2}

			for y := cy * size; y < (cy+1)*size; y++ {
				for x := cx * size; x < (cx+1)*size; x++ {
					d := math.Distance2f([2]float32{float32(x) + 0.5, float32(y) + 0.5}, center)
					// One pixel of antialiasing at the edge
					a := math.Clamp(radius-d+0.5, 0, 1)
					img.SetNRGBA(x, y, color.NRGBA{
						R: uint8(255 * c.R),
						G: uint8(255 * c.G),
						B: uint8(255 * c.B),
						A: uint8(255 * a),
					})
				}
			}
		}
	}
	return img
}
