// cmd/lumen/scene.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"slices"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/platform"
	"github.com/lumen2d/lumen/renderer"
	"github.com/lumen2d/lumen/util"

	"github.com/brunoga/deep"
)

// Scene is one of the demo's screens. The frame loop owns the context; a
// scene only draws into it.
type Scene interface {
	Name() string
	// Attach is called when the scene becomes active; it's where the
	// scene creates its textures.
	Attach(ctx *renderer.Context) error
	// Detach releases whatever Attach created.
	Detach()
	// Update draws a frame. The projection maps [0,w]x[0,h] to the
	// framebuffer, with the origin at the lower left.
	Update(ctx *renderer.Context, t platform.Time)
	// Settings returns the scene's post-processing settings.
	Settings() *SceneSettings
}

// SceneSettings are the per-scene post-processing settings. Each scene
// starts with its own copy of the configured settings, which it may then
// adjust.
type SceneSettings struct {
	ClearColor   renderer.RGB
	Bloom        renderer.BloomSettings
	BloomEnabled bool
	// Palette gives the colors the scene draws with.
	Palette []renderer.RGBA
}

var defaultPalette = []renderer.RGBA{
	renderer.RGBAFromHex(0xff5964ff),
	renderer.RGBAFromHex(0xffe74cff),
	renderer.RGBAFromHex(0x6bf178ff),
	renderer.RGBAFromHex(0x35a7ffff),
	renderer.RGBAFromHex(0xc490d1ff),
}

// sceneEnv holds the resources that scenes share.
type sceneEnv struct {
	font *renderer.Font
	lg   *log.Logger
}

var sceneFactories = map[string]func(env *sceneEnv, settings SceneSettings) Scene{
	"showcase": newShowcaseScene,
	"strokes":  newStrokesScene,
	"text":     newTextScene,
}

func sceneNames() []string {
	return util.SortedMapKeys(sceneFactories)
}

///////////////////////////////////////////////////////////////////////////
// SceneManager

// SceneManager runs one scene at a time and handles switching between
// them.
type SceneManager struct {
	ctx   *renderer.Context
	env   *sceneEnv
	base  SceneSettings
	names []string
	index int
	scene Scene
	lg    *log.Logger
}

func NewSceneManager(ctx *renderer.Context, env *sceneEnv, config *Config, lg *log.Logger) *SceneManager {
	return &SceneManager{
		ctx: ctx,
		env: env,
		base: SceneSettings{
			ClearColor:   config.ClearColor,
			Bloom:        config.Bloom,
			BloomEnabled: config.BloomEnabled,
			Palette:      defaultPalette,
		},
		names: sceneNames(),
		index: -1,
		lg:    lg,
	}
}

// Switch detaches the current scene, if any, and attaches the named one.
func (m *SceneManager) Switch(name string) error {
	idx := slices.Index(m.names, name)
	if idx == -1 {
		return fmt.Errorf("%s: unknown scene", name)
	}

	// The new scene gets its own copy of the settings so that whatever it
	// changes doesn't leak into the next one.
	scene := sceneFactories[name](m.env, deep.MustCopy(m.base))
	if err := scene.Attach(m.ctx); err != nil {
		scene.Detach()
		return fmt.Errorf("%s: %w", name, err)
	}

	if m.scene != nil {
		m.scene.Detach()
	}
	m.scene, m.index = scene, idx
	m.lg.Infof("Switched to scene %q", name)
	return nil
}

// Cycle switches to the scene delta positions away from the current one
// in the list of scenes, wrapping around at the ends.
func (m *SceneManager) Cycle(delta int) error {
	n := len(m.names)
	return m.Switch(m.names[((m.index+delta)%n+n)%n])
}

func (m *SceneManager) Current() Scene {
	return m.scene
}

// SetBloomEnabled updates the current scene and the settings given to
// scenes attached later.
func (m *SceneManager) SetBloomEnabled(enable bool) {
	m.base.BloomEnabled = enable
	if m.scene != nil {
		m.scene.Settings().BloomEnabled = enable
	}
}

func (m *SceneManager) Dispose() {
	if m.scene != nil {
		m.scene.Detach()
		m.scene = nil
	}
}
