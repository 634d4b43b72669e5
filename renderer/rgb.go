// renderer/rgb.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"github.com/lumen2d/lumen/math"
)

///////////////////////////////////////////////////////////////////////////
// RGB

type RGB struct {
	R, G, B float32
}

type RGBA struct {
	R, G, B, A float32
}

var (
	White       = RGBA{1, 1, 1, 1}
	Black       = RGBA{0, 0, 0, 1}
	Transparent = RGBA{}
)

func LerpRGBA(x float32, a, b RGBA) RGBA {
	return RGBA{R: math.Lerp(x, a.R, b.R), G: math.Lerp(x, a.G, b.G), B: math.Lerp(x, a.B, b.B),
		A: math.Lerp(x, a.A, b.A)}
}

func (r RGB) Scale(v float32) RGB {
	return RGB{R: r.R * v, G: r.G * v, B: r.B * v}
}

func (r RGB) Add(o RGB) RGB {
	return RGB{R: r.R + o.R, G: r.G + o.G, B: r.B + o.B}
}

func (r RGB) RGBA(a float32) RGBA {
	return RGBA{R: r.R, G: r.G, B: r.B, A: a}
}

func (c RGBA) RGB() RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

// Mul returns the component-wise product of the two colors.
func (c RGBA) Mul(o RGBA) RGBA {
	return RGBA{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

func (c RGBA) Add(o RGBA) RGBA {
	return RGBA{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

func (c RGBA) Scale(v float32) RGBA {
	return RGBA{R: c.R * v, G: c.G * v, B: c.B * v, A: c.A * v}
}

func (c RGBA) WithAlpha(a float32) RGBA {
	c.A = a
	return c
}

// Premultiplied returns the color with RGB scaled by alpha.
func (c RGBA) Premultiplied() RGBA {
	return RGBA{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Luma returns the Rec. 601 luma of the color's RGB components.
func (c RGBA) Luma() float32 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

func (c RGBA) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// RGBFromHex converts a packed integer color value to an RGB where the low
// 8 bits give blue, the next 8 give green, and then the next 8 give red.
func RGBFromHex(c int) RGB {
	r, g, b := (c>>16)&255, (c>>8)&255, c&255
	return RGB{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255}
}

// RGBAFromHex is like RGBFromHex but also takes alpha from the low 8 bits,
// so 0xff0000ff is opaque red.
func RGBAFromHex(c uint32) RGBA {
	r, g, b, a := (c>>24)&255, (c>>16)&255, (c>>8)&255, c&255
	return RGBA{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: float32(a) / 255}
}

func RGBAFromUInt8(r, g, b, a uint8) RGBA {
	return RGBA{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: float32(a) / 255}
}
