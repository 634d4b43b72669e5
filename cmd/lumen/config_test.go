// cmd/lumen/config_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lumen2d/lumen/renderer"
	"github.com/lumen2d/lumen/util"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configDir = dir
	t.Cleanup(func() { configDir = "" })
	return filepath.Join(dir, "config.json")
}

func TestConfigDefaultWhenMissing(t *testing.T) {
	useTempConfigDir(t)

	config, err := LoadOrMakeDefaultConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Scene != "showcase" || !config.BloomEnabled || config.Version != CurrentConfigVersion {
		t.Errorf("unexpected default config: %+v", config)
	}

	// Changing the returned config mustn't affect later defaults.
	config.Scene = "text"
	if getDefaultConfig().Scene != "showcase" {
		t.Errorf("default config was modified")
	}
}

func TestConfigSaveLoad(t *testing.T) {
	useTempConfigDir(t)

	config := getDefaultConfig()
	config.Scene = "strokes"
	config.BloomEnabled = false
	config.Bloom.Threshold = 0.75
	config.ClearColor = renderer.RGB{R: 0.1, G: 0.2, B: 0.3}
	if err := config.Save(nil); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadOrMakeDefaultConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Scene != "strokes" || loaded.BloomEnabled || loaded.Bloom.Threshold != 0.75 ||
		loaded.ClearColor != config.ClearColor {
		t.Errorf("loaded %+v, expected %+v", loaded, config)
	}

	if loaded.SaveIfChanged(nil, nil) {
		t.Errorf("SaveIfChanged wrote an unchanged config")
	}
	loaded.Scene = "text"
	if !loaded.SaveIfChanged(nil, nil) {
		t.Errorf("SaveIfChanged didn't write a changed config")
	}
}

func TestConfigPartialFile(t *testing.T) {
	fn := useTempConfigDir(t)

	// Missing fields take their default values.
	if err := os.WriteFile(fn, []byte(`{"Version": 2, "Scene": "text"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	config, err := LoadOrMakeDefaultConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Scene != "text" {
		t.Errorf("scene %q, expected \"text\"", config.Scene)
	}
	if config.Bloom != renderer.DefaultBloomSettings() {
		t.Errorf("bloom %+v, expected defaults", config.Bloom)
	}
}

func TestConfigMigration(t *testing.T) {
	fn := useTempConfigDir(t)

	if err := os.WriteFile(fn, []byte(`{"Version": 1, "Bloom": {"threshold": 1, "kick": 0.1, "exposure": 1, "passes": 6}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	config, err := LoadOrMakeDefaultConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Bloom.Passes != 5 {
		t.Errorf("passes %d, expected 5", config.Bloom.Passes)
	}
	if config.Version != CurrentConfigVersion {
		t.Errorf("version %d, expected %d", config.Version, CurrentConfigVersion)
	}
}

func TestConfigInvalid(t *testing.T) {
	for _, tc := range []struct {
		name     string
		contents string
		invalid  bool
	}{
		{name: "corrupt", contents: `{"Scene": `},
		{name: "unknown scene", contents: `{"Version": 2, "Scene": "nope"}`, invalid: true},
		{name: "too few passes", contents: `{"Version": 2, "Bloom": {"threshold": 1, "exposure": 1, "passes": 1}}`, invalid: true},
		{name: "headless size", contents: `{"Version": 2, "HeadlessSize": [0, 100]}`, invalid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fn := useTempConfigDir(t)
			if err := os.WriteFile(fn, []byte(tc.contents), 0o600); err != nil {
				t.Fatal(err)
			}

			config, err := LoadOrMakeDefaultConfig(nil)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.invalid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v should wrap ErrInvalidConfig", err)
			}
			if config.Scene != "showcase" || config.Bloom != renderer.DefaultBloomSettings() {
				t.Errorf("expected the default config; got %+v", config)
			}
		})
	}
}

func TestConfigValidateReportsAll(t *testing.T) {
	config := getDefaultConfig()
	config.Scene = "nope"
	config.HeadlessSize = [2]int{-1, 10}
	config.Bloom.Exposure = 0

	var e util.ErrorLogger
	config.Validate(&e)
	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	if n := strings.Count(e.String(), "\n") + 1; n != 3 {
		t.Errorf("%d errors reported, expected 3:\n%s", n, e.String())
	}
	if e.CurrentDepth() != 0 {
		t.Errorf("unbalanced Push/Pop in Validate")
	}
}
