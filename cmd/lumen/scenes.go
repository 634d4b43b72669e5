// cmd/lumen/scenes.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"

	"github.com/lumen2d/lumen/math"
	"github.com/lumen2d/lumen/platform"
	"github.com/lumen2d/lumen/renderer"
)

///////////////////////////////////////////////////////////////////////////
// strokesScene

// strokesScene exercises line joins: polylines with sharp and shallow
// angles at a range of widths.
type strokesScene struct {
	env      *sceneEnv
	settings SceneSettings
}

func newStrokesScene(env *sceneEnv, settings SceneSettings) Scene {
	// Thin lines don't have enough energy to bloom nicely.
	settings.Bloom.Threshold *= 0.5
	return &strokesScene{env: env, settings: settings}
}

func (s *strokesScene) Name() string                       { return "strokes" }
func (s *strokesScene) Settings() *SceneSettings           { return &s.settings }
func (s *strokesScene) Attach(ctx *renderer.Context) error { return nil }
func (s *strokesScene) Detach()                            {}

func (s *strokesScene) Update(ctx *renderer.Context, t platform.Time) {
	size := ctx.ProjectionSize()
	w, h := size[0], size[1]
	elapsed := float32(t.Elapsed)
	palette := s.settings.Palette

	// Zig-zags whose angle sweeps from shallow to sharp
	for row := range 4 {
		ctx.With(func() {
			y := h * (0.15 + 0.12*float32(row))
			amp := h * 0.04 * t.SineWave(0.2, 1.5, 0.2+0.1*float32(row))
			ctx.LineWidth(float32(1 + 2*row))
			ctx.Color(palette[row%len(palette)])
			ctx.Begin(renderer.PrimitiveLineStrip)
			for i := range 9 {
				sign := float32(1 - 2*(i%2))
				ctx.Vertex([2]float32{w * (0.05 + 0.1*float32(i)), y + sign*amp})
			}
			ctx.End()
		})
	}

	// Regular polygons as line loops
	for i, sides := range []int{3, 4, 5, 6, 8} {
		ctx.With(func() {
			center := [2]float32{w * (0.1 + 0.2*float32(i)), h * 0.75}
			r := math.Min(w, h) * 0.08
			ctx.Translate(center)
			ctx.Rotate(elapsed * 0.5 * float32(1-2*(i%2)))
			ctx.LineWidth(2 + float32(i))
			ctx.Color(palette[(i+1)%len(palette)])
			ctx.Begin(renderer.PrimitiveLineLoop)
			for j := range sides {
				a := float32(j) * 2 * math.Pi() / float32(sides)
				ctx.Vertex([2]float32{r * math.Cos(a), r * math.Sin(a)})
			}
			ctx.End()
		})
	}

	// Independent segments radiating out
	ctx.With(func() {
		center := [2]float32{w * 0.85, h * 0.35}
		ctx.LineWidth(1.5)
		ctx.Begin(renderer.PrimitiveLines)
		const n = 24
		for i := range n {
			a := float32(i)*2*math.Pi()/n + elapsed*0.3
			r0, r1 := h*0.05, h*0.05+h*0.1*t.SineWave(0.3, 1, 0.25+float32(i%4)*0.1)
			ctx.Color(palette[i%len(palette)].RGB().Scale(1.5).RGBA(1))
			ctx.Vertex(math.Add2f(center, [2]float32{r0 * math.Cos(a), r0 * math.Sin(a)}))
			ctx.Vertex(math.Add2f(center, [2]float32{r1 * math.Cos(a), r1 * math.Sin(a)}))
		}
		ctx.End()
	})

	ctx.With(func() {
		ctx.Translate([2]float32{w * 0.02, h * 0.98})
		ctx.Pivot([2]float32{0, 1})
		ctx.Color(renderer.White.WithAlpha(0.8))
		ctx.DrawText(s.env.font, "line strips, loops, and segments", h*0.04, 0)
	})
}

///////////////////////////////////////////////////////////////////////////
// textScene

// textScene shows distance-field text over a range of sizes, including
// per-character animation and truncation.
type textScene struct {
	env      *sceneEnv
	settings SceneSettings
	// box is the width of the truncation box, as a fraction of the window.
	box *platform.Tween[float32]
}

func newTextScene(env *sceneEnv, settings SceneSettings) Scene {
	settings.ClearColor = renderer.RGB{R: 0.05, G: 0.04, B: 0.08}
	return &textScene{
		env:      env,
		settings: settings,
		box: platform.NewTween(math.Lerp,
			platform.TweenStep[float32]{Name: "grow", Start: 0.15, End: 0.6, Duration: 4, AutoNext: true},
			platform.TweenStep[float32]{Name: "hold", Start: 0.6, End: 0.6, Duration: 1, AutoNext: true},
			platform.TweenStep[float32]{Name: "shrink", Start: 0.6, End: 0.15, Duration: 4, AutoNext: true}),
	}
}

func (s *textScene) Name() string             { return "text" }
func (s *textScene) Settings() *SceneSettings { return &s.settings }
func (s *textScene) Detach()                  {}

func (s *textScene) Attach(ctx *renderer.Context) error {
	s.box.SetCurrent("grow")
	return nil
}

const pangram = "The quick brown fox\njumps over the lazy dog."

func (s *textScene) Update(ctx *renderer.Context, t platform.Time) {
	size := ctx.ProjectionSize()
	w, h := size[0], size[1]
	font := s.env.font
	palette := s.settings.Palette
	elapsed := float32(t.Elapsed)

	// Sizes from tiny to large, down the left side
	ctx.With(func() {
		ctx.Pivot([2]float32{0, 1})
		ctx.Color(renderer.White)
		y := h * 0.97
		for _, px := range []float32{8, 12, 16, 24, 36} {
			ctx.With(func() {
				ctx.Translate([2]float32{w * 0.02, y})
				ctx.DrawText(font, fmt.Sprintf("%.0f px: Sphinx of black quartz", px), px, 0)
			})
			y -= px * 1.4
		}
	})

	// Pulsing, rotating centerpiece
	ctx.With(func() {
		ctx.Translate([2]float32{w * 0.5, h * 0.4})
		ctx.Rotate(0.1 * math.Sin(elapsed))
		ctx.Pivot([2]float32{0.5, 0.5})
		ctx.Color(renderer.White)
		scale := t.SineWave(0.9, 1.1, 0.5) * h * 0.08
		ctx.DrawTextModified(font, pangram, scale, 0.2, func(i int) renderer.CharacterModifier {
			c := palette[i%len(palette)]
			if i == int(elapsed*10)%len(pangram) {
				// The highlighted character is bright enough to bloom.
				c = c.RGB().Scale(3).RGBA(1)
			}
			return renderer.CharacterModifier{
				Offset: [2]float32{0, 0.1 * math.Sin(elapsed*4+float32(i)*0.5)},
				Scale:  1 + 0.15*math.Sin(elapsed*2+float32(i)*0.3),
				Color:  &c,
			}
		})
	})

	// A label that's truncated to fit a box that grows and shrinks
	ctx.With(func() {
		scale := h * 0.035
		s.box.Update(float32(t.Delta))
		boxWidth := w * s.box.Value()
		label := font.ShrinkToFit("A label that is too long for its box", boxWidth/scale)

		ctx.Translate([2]float32{w * 0.5, h * 0.1})
		ctx.Pivot([2]float32{0.5, 0.5})
		ctx.Color(palette[3].WithAlpha(0.25))
		ctx.Quad([2]float32{}, [2]float32{boxWidth, scale * 1.4})
		ctx.Color(renderer.White)
		ctx.DrawText(font, label, scale, 0)
	})
}
