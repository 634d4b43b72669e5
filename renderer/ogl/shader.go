// renderer/ogl/shader.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ogl

import (
	"fmt"
	"strings"

	"github.com/lumen2d/lumen/renderer"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var glFormats = map[renderer.TextureFormat]glFormat{
	renderer.TextureFormatRGBA8:   {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	renderer.TextureFormatRGBA32F: {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	renderer.TextureFormatRGB8:    {gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE},
	renderer.TextureFormatRGB32F:  {gl.RGB32F, gl.RGB, gl.FLOAT},
	renderer.TextureFormatR8:      {gl.R8, gl.RED, gl.UNSIGNED_BYTE},
	// Half-float textures are uploaded as float32 and converted by the driver.
	renderer.TextureFormatR16F: {gl.R16F, gl.RED, gl.FLOAT},
}

// glFilters returns the minification and magnification filters for the
// given mode.
func glFilters(m renderer.FilterMode) (int32, int32) {
	switch m {
	case renderer.FilterNearest:
		return gl.NEAREST, gl.NEAREST
	case renderer.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	default:
		return gl.LINEAR, gl.LINEAR
	}
}

// defineTextureUnits adds a MAX_TEXTURE_UNITS definition right after the
// source's #version line, which must come first.
func defineTextureUnits(source string, n int) string {
	define := fmt.Sprintf("#define MAX_TEXTURE_UNITS %d\n", n)

	version, rest, found := strings.Cut(strings.TrimLeft(source, " \t\r\n"), "\n")
	if !found || !strings.HasPrefix(version, "#version") {
		return define + source
	}
	return version + "\n" + define + rest
}

// https://github.com/go-gl/example/blob/master/gl41core-cube/cube.go
//
// newProgram returns a non-zero program along with an error if linking
// fails, so that the caller can keep track of it.
func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return program, err
	}
	defer gl.DeleteShader(fragmentShader)

	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		return program, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}
