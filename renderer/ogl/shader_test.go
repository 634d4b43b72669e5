// renderer/ogl/shader_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ogl

import (
	"strings"
	"testing"

	"github.com/lumen2d/lumen/renderer"
)

func TestDefineTextureUnits(t *testing.T) {
	src := defineTextureUnits(renderer.DefaultProgramSource, 16)
	lines := strings.Split(src, "\n")
	if lines[0] != "#version 410 core" {
		t.Errorf("first line %q, expected #version", lines[0])
	}
	if lines[1] != "#define MAX_TEXTURE_UNITS 16" {
		t.Errorf("second line %q, expected define", lines[1])
	}
	if !strings.Contains(src, "uTextures[MAX_TEXTURE_UNITS]") {
		t.Errorf("sampler array declaration lost")
	}

	if src := defineTextureUnits("void main() {}", 4); !strings.HasPrefix(src, "#define MAX_TEXTURE_UNITS 4\n") {
		t.Errorf("source without #version: got %q", src)
	}
}

func TestFormatsCovered(t *testing.T) {
	for f := renderer.TextureFormatRGBA8; f.Valid(); f++ {
		if _, ok := glFormats[f]; !ok {
			t.Errorf("%s: no GL format", f)
		}
	}
}
