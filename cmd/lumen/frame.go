// cmd/lumen/frame.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/platform"
	"github.com/lumen2d/lumen/renderer"
)

// app draws frames: the current scene is rendered into an offscreen HDR
// framebuffer, optionally run through the bloom, and then copied to the
// window.
type app struct {
	ctx    *renderer.Context
	scenes *SceneManager
	lg     *log.Logger

	sceneFB *renderer.Framebuffer
	bloom   *renderer.Bloom

	stats Stats
}

func newApp(ctx *renderer.Context, scenes *SceneManager, lg *log.Logger) *app {
	return &app{ctx: ctx, scenes: scenes, lg: lg}
}

// frame draws one frame to a window whose framebuffer is fbSize pixels.
func (a *app) frame(fbSize [2]int, t platform.Time) error {
	w, h := max(1, fbSize[0]), max(1, fbSize[1])
	ctx := a.ctx
	ctx.SetWindowSize(w, h)

	if a.sceneFB == nil {
		var err error
		if a.sceneFB, err = renderer.NewFramebuffer(ctx.Renderer(), []renderer.TextureFormat{renderer.TextureFormatRGBA32F}, w, h); err != nil {
			return fmt.Errorf("scene framebuffer: %w", err)
		}
	} else if err := a.sceneFB.Resize(w, h); err != nil {
		return fmt.Errorf("scene framebuffer: %w", err)
	}

	scene := a.scenes.Current()
	settings := scene.Settings()

	ctx.ResetStats()
	ctx.Reset()
	ctx.BindFramebuffer(a.sceneFB)
	ctx.Clear(settings.ClearColor.RGBA(1))
	if err := ctx.Ortho(float32(w), float32(h)); err != nil {
		return err
	}
	scene.Update(ctx, t)
	ctx.Flush()
	a.stats.scene = ctx.Stats()

	result := a.sceneFB.Attachment(0)
	if settings.BloomEnabled {
		bloomed, err := a.applyBloom(result, settings.Bloom)
		if err != nil {
			return err
		}
		result = bloomed
	} else {
		ctx.UnbindFramebuffer()
		ctx.Reset()
	}

	// Copy to the window
	ctx.Clear(renderer.Black)
	ctx.Texture(result)
	ctx.With(func() {
		ctx.Pivot([2]float32{0.5, 0.5})
		ctx.Quad([2]float32{0, 0}, [2]float32{2, 2})
	})
	ctx.NoTexture()
	ctx.Flush()

	a.stats.total = ctx.Stats()
	a.stats.redraws++
	return nil
}

func (a *app) applyBloom(src *renderer.Texture, settings renderer.BloomSettings) (*renderer.Texture, error) {
	if a.bloom != nil && a.bloom.Settings().Passes != settings.Passes {
		a.bloom.Dispose()
		a.bloom = nil
	}

	if a.bloom == nil {
		var err error
		if a.bloom, err = renderer.NewBloom(a.ctx, a.lg, settings); err != nil {
			return nil, err
		}
	} else if a.bloom.Settings() != settings {
		if err := a.bloom.SetSettings(settings); err != nil {
			return nil, err
		}
	}
	return a.bloom.Apply(src)
}

func (a *app) dispose() {
	if a.bloom != nil {
		a.bloom.Dispose()
		a.bloom = nil
	}
	if a.sceneFB != nil {
		a.sceneFB.Dispose()
		a.sceneFB = nil
	}
}
