// renderer/program.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/math"
)

// Uniforms holds the values of a program's uniforms for a batch. Values
// may be int32 (also used for samplers, where the value is a texture
// unit), float32, [2]float32, [4]float32, or math.Matrix4.
type Uniforms map[string]any

func (u Uniforms) Int(name string) int32 {
	switch v := u[name].(type) {
	case int32:
		return v
	case int:
		return int32(v)
	}
	return 0
}

func (u Uniforms) Float(name string) float32 {
	if v, ok := u[name].(float32); ok {
		return v
	}
	return 0
}

func (u Uniforms) Vec2(name string) [2]float32 {
	if v, ok := u[name].([2]float32); ok {
		return v
	}
	return [2]float32{}
}

// Fragment is the interpolated vertex data a FragmentFunc shades.
type Fragment struct {
	UV    [2]float32
	Color RGBA
	Unit  int32
	Mode  DrawingMode
	Step  float32
}

// Sampler gives a FragmentFunc access to the textures bound for a batch.
type Sampler interface {
	// Sample returns the bilinearly filtered value of the texture bound to
	// the given unit; texture coordinates are clamped to the edge.
	Sample(unit int32, uv [2]float32) RGBA
	// TextureSize returns the size of the texture bound to the given unit.
	TextureSize(unit int32) [2]int
}

// FragmentFunc is the CPU version of a fragment shader.
type FragmentFunc func(f *Fragment, u Uniforms, s Sampler) RGBA

// Program is a fragment shader that is used with the shared vertex
// shader. It carries both GLSL source for GPU renderers and an equivalent
// FragmentFunc for the software renderer.
//
// The GLSL source must start with a #version line. It may use the inputs
// vUv, vColor, flat int vTextureUnit, flat int vDistanceField, and
// vDistanceFieldStep, and the constant MAX_TEXTURE_UNITS, which is defined
// by the renderer.
type Program struct {
	Name   string
	Source string
	Shade  FragmentFunc

	r  Renderer
	id uint32
}

// NewProgram compiles a program on the given renderer. Compilation errors
// are logged and returned, but the program is returned as well so that
// callers may choose to carry on with degraded rendering.
func NewProgram(r Renderer, lg *log.Logger, name, source string, shade FragmentFunc) (*Program, error) {
	p := &Program{Name: name, Source: source, Shade: shade, r: r}
	id, err := r.CreateProgram(p)
	p.id = id
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		lg.Errorf("%v", err)
		return p, err
	}
	lg.Debugf("%s: compiled program %d", name, id)
	return p, nil
}

func (p *Program) Handle() uint32 { return p.id }

func (p *Program) Dispose() {
	if p != nil && p.id != 0 {
		p.r.DestroyProgram(p.id)
		p.id = 0
	}
}

// DefaultProgramSource is the fragment shader used for all regular
// drawing: textured (possibly with the white texture) and distance-field
// shading.
const DefaultProgramSource = `#version 410 core

in vec2 vUv;
in vec4 vColor;
flat in int vTextureUnit;
flat in int vDistanceField;
flat in float vDistanceFieldStep;

out vec4 oColor;

uniform sampler2D uTextures[MAX_TEXTURE_UNITS];

void main() {
    vec4 smpl = texture(uTextures[vTextureUnit], vUv);
    if (vDistanceField == 0) {
        oColor = vColor * smpl;
    } else {
        float a = smoothstep(0.5 - vDistanceFieldStep, 0.5 + vDistanceFieldStep, smpl.r);
        oColor = vec4(vColor.rgb, vColor.a * a);
    }
}
`

// ShadeDefault is the FragmentFunc equivalent of DefaultProgramSource.
func ShadeDefault(f *Fragment, u Uniforms, s Sampler) RGBA {
	smpl := s.Sample(f.Unit, f.UV)
	if f.Mode == DrawingModeNormal {
		return f.Color.Mul(smpl)
	}
	a := math.Smoothstep(0.5-f.Step, 0.5+f.Step, smpl.R)
	return f.Color.WithAlpha(f.Color.A * a)
}

// VertexShaderSource is shared by all programs.
const VertexShaderSource = `#version 410 core

layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec2 aUv;
layout(location = 2) in vec4 aColor;
layout(location = 3) in int aTextureUnit;
layout(location = 4) in int aDistanceField;
layout(location = 5) in float aDistanceFieldStep;

uniform mat4 uProjection;

out vec2 vUv;
out vec4 vColor;
flat out int vTextureUnit;
flat out int vDistanceField;
flat out float vDistanceFieldStep;

void main() {
    gl_Position = uProjection * vec4(aPosition, 1.0);
    vUv = aUv;
    vColor = aColor;
    vTextureUnit = aTextureUnit;
    vDistanceField = aDistanceField;
    vDistanceFieldStep = aDistanceFieldStep;
}
`
