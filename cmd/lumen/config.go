// cmd/lumen/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/platform"
	"github.com/lumen2d/lumen/renderer"
	"github.com/lumen2d/lumen/util"

	"github.com/brunoga/deep"
)

// CurrentConfigVersion is bumped whenever the meaning of an existing
// field changes.
const CurrentConfigVersion = 2

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	platform.Config

	Version int

	Bloom        renderer.BloomSettings
	BloomEnabled bool

	// FontPath is a font atlas in the resources directory; the built-in
	// font is used if it is empty.
	FontPath   string
	ClearColor renderer.RGB

	// Scene is the name of the scene that is shown at startup.
	Scene string

	HeadlessSize [2]int
}

var defaultConfig = Config{
	Config: platform.Config{
		InitialWindowPosition: [2]int{100, 100},
		VSync:                 true,
	},
	Version:      CurrentConfigVersion,
	Bloom:        renderer.DefaultBloomSettings(),
	BloomEnabled: true,
	ClearColor:   renderer.RGB{R: 0.02, G: 0.02, B: 0.05},
	Scene:        "showcase",
	HeadlessSize: [2]int{640, 360},
}

func getDefaultConfig() *Config {
	c := deep.MustCopy(defaultConfig)
	return &c
}

// configDir overrides the directory the config file is stored in.
var configDir string

func configFilePath(lg *log.Logger) string {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			lg.Errorf("Unable to find user config dir: %v", err)
			dir = "."
		}
		dir = filepath.Join(dir, "Lumen")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		lg.Errorf("%s: unable to make directory for config file: %v", dir, err)
	}

	return filepath.Join(dir, "config.json")
}

func (c *Config) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}

func (c *Config) Save(lg *log.Logger) error {
	lg.Infof("Saving config to: %s", configFilePath(lg))
	f, err := os.Create(configFilePath(lg))
	if err != nil {
		return err
	}
	defer f.Close()

	return c.Encode(f)
}

// SaveIfChanged records the current window placement and writes the
// config if it differs from what's on disk; it returns true if the file
// was written.
func (c *Config) SaveIfChanged(plat platform.Platform, lg *log.Logger) bool {
	if plat != nil {
		c.InitialWindowSize = plat.WindowSize()
		c.InitialWindowPosition = plat.WindowPosition()
	}

	fn := configFilePath(lg)
	onDisk, err := os.ReadFile(fn)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		lg.Warnf("%s: unable to read config file: %v", fn, err)
	}

	var b strings.Builder
	if err = c.Encode(&b); err != nil {
		lg.Errorf("%s: unable to encode config: %v", fn, err)
		return false
	}

	if b.String() == string(onDisk) {
		return false
	}

	if err := c.Save(lg); err != nil {
		lg.Errorf("Error saving configuration file: %v", err)
		return false
	}
	return true
}

// Validate checks the config, reporting all problems found to e.
func (c *Config) Validate(e *util.ErrorLogger) {
	e.Push("config")
	defer e.Pop()

	if err := c.Bloom.Validate(); err != nil {
		e.Error(err)
	}
	if c.HeadlessSize[0] <= 0 || c.HeadlessSize[1] <= 0 {
		e.ErrorString("headless size %dx%d must be positive", c.HeadlessSize[0], c.HeadlessSize[1])
	}
	if !slices.Contains(sceneNames(), c.Scene) {
		e.ErrorString("unknown scene %q; available: %s", c.Scene, strings.Join(sceneNames(), ", "))
	}
}

// LoadOrMakeDefaultConfig returns the saved config. Fields that are
// missing from the saved file take their default values. If the file is
// corrupt or invalid, the default config is returned along with an error
// describing the problem.
func LoadOrMakeDefaultConfig(lg *log.Logger) (config *Config, configErr error) {
	fn := configFilePath(lg)
	lg.Infof("Loading config from: %s", fn)

	config = getDefaultConfig()

	contents, err := os.ReadFile(fn)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			lg.Warnf("%s: %v", fn, err)
		}
		return config, nil
	}

	d := json.NewDecoder(bytes.NewReader(contents))
	if err := d.Decode(config); err != nil {
		return getDefaultConfig(), fmt.Errorf("%s: %w", fn, err)
	}

	if config.Version < 2 {
		// Version 1 stored the bloom pass count one higher.
		config.Bloom.Passes = max(2, config.Bloom.Passes-1)
	}
	config.Version = CurrentConfigVersion

	var e util.ErrorLogger
	config.Validate(&e)
	if e.HaveErrors() {
		e.PrintErrors(lg)
		return getDefaultConfig(), e.Err(ErrInvalidConfig)
	}

	return config, nil
}
