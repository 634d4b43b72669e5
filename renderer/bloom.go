// renderer/bloom.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/math"
)

type BloomSettings struct {
	// Threshold is the luma above which pixels contribute to the bloom.
	Threshold float32 `json:"threshold"`
	// Kick is the half-width of the transition band around the threshold.
	Kick     float32 `json:"kick"`
	Exposure float32 `json:"exposure"`
	// Passes is the number of levels in the downsampling chain.
	Passes int `json:"passes"`
}

func DefaultBloomSettings() BloomSettings {
	return BloomSettings{Threshold: 1, Kick: 0.1, Exposure: 1, Passes: 8}
}

var ErrInvalidBloomSettings = errors.New("invalid bloom settings")

func (s BloomSettings) Validate() error {
	if s.Passes < 2 {
		return fmt.Errorf("%w: %d passes; at least 2 are required", ErrInvalidBloomSettings, s.Passes)
	}
	if s.Kick < 0 {
		return fmt.Errorf("%w: negative kick %f", ErrInvalidBloomSettings, s.Kick)
	}
	if s.Exposure <= 0 {
		return fmt.Errorf("%w: exposure %f must be positive", ErrInvalidBloomSettings, s.Exposure)
	}
	return nil
}

// Bloom adds a glow around the bright parts of an image. The bright parts
// are extracted at half resolution, successively downsampled, and then
// blurred back up level by level, accumulating each level of the chain;
// the result is added to the original image and tone mapped.
type Bloom struct {
	settings BloomSettings

	ctx *Context
	lg  *log.Logger

	prefilter *Framebuffer
	down, up  []*Framebuffer
	combine   *Framebuffer

	prefilterProgram  *Program
	downsampleProgram *Program
	upsampleProgram   *Program
	combineProgram    *Program
}

var bloomFormat = []TextureFormat{TextureFormatRGB32F}

func NewBloom(ctx *Context, lg *log.Logger, settings BloomSettings) (*Bloom, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	b := &Bloom{settings: settings, ctx: ctx, lg: lg}
	r := ctx.Renderer()

	newfb := func() (*Framebuffer, error) { return NewFramebuffer(r, bloomFormat, 1, 1) }
	var err error
	if b.prefilter, err = newfb(); err != nil {
		return nil, err
	}
	if b.combine, err = newfb(); err != nil {
		b.Dispose()
		return nil, err
	}
	for i := range settings.Passes {
		d, err := newfb()
		if err != nil {
			b.Dispose()
			return nil, err
		}
		b.down = append(b.down, d)

		if i == settings.Passes-1 {
			// The coarsest level isn't upsampled to.
			break
		}
		u, err := newfb()
		if err != nil {
			b.Dispose()
			return nil, err
		}
		b.up = append(b.up, u)
	}

	// Compilation errors are logged by NewProgram; carry on regardless.
	b.prefilterProgram, _ = NewProgram(r, lg, "bloom prefilter", bloomPrefilterSource, ShadeBloomPrefilter)
	b.downsampleProgram, _ = NewProgram(r, lg, "bloom downsample", bloomDownsampleSource, ShadeBloomDownsample)
	b.upsampleProgram, _ = NewProgram(r, lg, "bloom upsample", bloomUpsampleSource, ShadeBloomUpsample)
	b.combineProgram, _ = NewProgram(r, lg, "bloom combine", bloomCombineSource, ShadeBloomCombine)

	return b, nil
}

func (b *Bloom) Settings() BloomSettings { return b.settings }

// SetSettings updates the bloom parameters; a change in the number of
// passes takes effect after the Bloom is recreated.
func (b *Bloom) SetSettings(s BloomSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Passes = b.settings.Passes
	b.settings = s
	return nil
}

// LevelSize returns the size of the i'th level of the downsampling chain
// for a source of the given size.
func LevelSize(i int, size [2]int) [2]int {
	return [2]int{max(1, size[0]>>(i+1)), max(1, size[1]>>(i+1))}
}

func (b *Bloom) resize(w, h int) error {
	if err := b.combine.Resize(w, h); err != nil {
		return err
	}
	if err := b.prefilter.Resize(max(1, w/2), max(1, h/2)); err != nil {
		return err
	}
	for i := range b.down {
		sz := LevelSize(i, [2]int{w, h})
		if err := b.down[i].Resize(sz[0], sz[1]); err != nil {
			return err
		}
		if i < len(b.up) {
			if err := b.up[i].Resize(sz[0], sz[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bloom) fullscreenQuad() {
	b.ctx.With(func() {
		b.ctx.Pivot([2]float32{0.5, 0.5})
		b.ctx.Quad([2]float32{0, 0}, [2]float32{2, 2})
	})
}

// Apply runs the bloom passes on src and returns the result, which remains
// valid until the next call to Apply. Pending geometry is flushed first;
// the context is reset, leaving the window bound with an identity
// projection and the default program.
func (b *Bloom) Apply(src *Texture) (*Texture, error) {
	c := b.ctx
	// Pending geometry may sample the attachments that resizing replaces.
	c.Flush()
	if err := b.resize(src.Width(), src.Height()); err != nil {
		return nil, fmt.Errorf("bloom: %w", err)
	}
	c.Reset()

	// Prefilter
	c.BindFramebuffer(b.prefilter)
	c.Clear(Black)
	c.UseProgram(b.prefilterProgram)
	c.Uniform("uSource", c.Texture(src))
	c.Uniform("uThreshold", b.settings.Threshold)
	c.Uniform("uKick", b.settings.Kick)
	b.fullscreenQuad()

	// Copy to the first level
	c.BindFramebuffer(b.down[0])
	c.DefaultProgram()
	c.Clear(Black)
	c.Texture(b.prefilter.Attachment(0))
	b.fullscreenQuad()
	c.NoTexture()

	// Downsample
	c.UseProgram(b.downsampleProgram)
	for i := 1; i < len(b.down); i++ {
		c.BindFramebuffer(b.down[i])
		c.Clear(Black)
		c.Uniform("uSource", c.Texture(b.down[i-1].Attachment(0)))
		b.fullscreenQuad()
	}

	// Upsample, starting from the coarsest level
	c.UseProgram(b.upsampleProgram)
	coarser := b.down[len(b.down)-1]
	for i := len(b.down) - 2; i >= 0; i-- {
		c.BindFramebuffer(b.up[i])
		c.Clear(Black)
		units := c.Textures(b.down[i].Attachment(0), coarser.Attachment(0))
		c.Uniform("uPrevious", units[0])
		c.Uniform("uUpsample", units[1])
		b.fullscreenQuad()
		coarser = b.up[i]
	}

	// Combine
	c.UseProgram(b.combineProgram)
	c.BindFramebuffer(b.combine)
	c.Clear(Black)
	units := c.Textures(src, b.up[0].Attachment(0))
	c.Uniform("uExposure", b.settings.Exposure)
	c.Uniform("uColor", units[0])
	c.Uniform("uBloom", units[1])
	b.fullscreenQuad()

	c.UnbindFramebuffer()
	c.DefaultProgram()

	return b.Result(), nil
}

// Result returns the texture produced by the most recent call to Apply.
func (b *Bloom) Result() *Texture {
	return b.combine.Attachment(0)
}

// Levels returns the number of levels in the downsampling chain.
func (b *Bloom) Levels() int { return len(b.down) }

// DownsampleLevel returns the i'th level of the downsampling chain.
func (b *Bloom) DownsampleLevel(i int) *Texture { return b.down[i].Attachment(0) }

// UpsampleLevel returns the i'th level of the upsampling chain, which has
// one level fewer than the downsampling chain.
func (b *Bloom) UpsampleLevel(i int) *Texture { return b.up[i].Attachment(0) }

func (b *Bloom) Dispose() {
	b.prefilter.Dispose()
	b.combine.Dispose()
	for _, fb := range b.down {
		fb.Dispose()
	}
	for _, fb := range b.up {
		fb.Dispose()
	}
	b.prefilterProgram.Dispose()
	b.downsampleProgram.Dispose()
	b.upsampleProgram.Dispose()
	b.combineProgram.Dispose()
}

///////////////////////////////////////////////////////////////////////////
// Programs

const bloomPrefilterSource = `#version 410 core

uniform sampler2D uSource;
uniform float uThreshold;
uniform float uKick;

in vec2 vUv;
out vec4 oColor;

void main() {
    vec4 smpl = texture(uSource, vUv);
    vec3 color = smpl.rgb * smpl.a;
    float luma = dot(vec3(0.299, 0.587, 0.114), color);
    oColor = vec4(smoothstep(uThreshold - uKick, uThreshold + uKick, luma) * color, 1.0);
}
`

func ShadeBloomPrefilter(f *Fragment, u Uniforms, s Sampler) RGBA {
	smpl := s.Sample(u.Int("uSource"), f.UV)
	col := smpl.RGB().Scale(smpl.A)
	luma := col.RGBA(1).Luma()
	th, kick := u.Float("uThreshold"), u.Float("uKick")
	return col.Scale(math.Smoothstep(th-kick, th+kick, luma)).RGBA(1)
}

const bloomDownsampleSource = `#version 410 core

uniform sampler2D uSource;

in vec2 vUv;
out vec4 oColor;

void main() {
    vec2 s = 1.0 / vec2(textureSize(uSource, 0));

    vec3 tl = texture(uSource, vUv + vec2(-s.x, +s.y)).rgb;
    vec3 tr = texture(uSource, vUv + vec2(+s.x, +s.y)).rgb;
    vec3 bl = texture(uSource, vUv + vec2(-s.x, -s.y)).rgb;
    vec3 br = texture(uSource, vUv + vec2(+s.x, -s.y)).rgb;

    oColor = vec4((tl + tr + bl + br) / 4.0, 1.0);
}
`

// texelStep returns the size of a texel of the texture bound to unit in
// texture coordinates.
func texelStep(s Sampler, unit int32) [2]float32 {
	sz := s.TextureSize(unit)
	return [2]float32{1 / float32(max(1, sz[0])), 1 / float32(max(1, sz[1]))}
}

func ShadeBloomDownsample(f *Fragment, u Uniforms, s Sampler) RGBA {
	unit := u.Int("uSource")
	st := texelStep(s, unit)

	var sum RGB
	for _, d := range [4][2]float32{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}} {
		c := s.Sample(unit, [2]float32{f.UV[0] + d[0]*st[0], f.UV[1] + d[1]*st[1]})
		sum = sum.Add(c.RGB())
	}
	return sum.Scale(0.25).RGBA(1)
}

const bloomUpsampleSource = `#version 410 core

uniform sampler2D uPrevious;
uniform sampler2D uUpsample;

in vec2 vUv;
out vec4 oColor;

void main() {
    vec2 s = 1.0 / vec2(textureSize(uUpsample, 0));

    vec3 upsampleColor = vec3(0.0);
    upsampleColor += 1.0 * texture(uUpsample, vUv + vec2(-s.x, +s.y)).rgb;
    upsampleColor += 2.0 * texture(uUpsample, vUv + vec2(+0.0, +s.y)).rgb;
    upsampleColor += 1.0 * texture(uUpsample, vUv + vec2(+s.x, +s.y)).rgb;
    upsampleColor += 2.0 * texture(uUpsample, vUv + vec2(-s.x, +0.0)).rgb;
    upsampleColor += 4.0 * texture(uUpsample, vUv + vec2(+0.0, +0.0)).rgb;
    upsampleColor += 2.0 * texture(uUpsample, vUv + vec2(+s.x, +0.0)).rgb;
    upsampleColor += 1.0 * texture(uUpsample, vUv + vec2(-s.x, -s.y)).rgb;
    upsampleColor += 2.0 * texture(uUpsample, vUv + vec2(+0.0, -s.y)).rgb;
    upsampleColor += 1.0 * texture(uUpsample, vUv + vec2(+s.x, -s.y)).rgb;

    oColor = vec4(upsampleColor / 16.0 + texture(uPrevious, vUv).rgb, 1.0);
}
`

func ShadeBloomUpsample(f *Fragment, u Uniforms, s Sampler) RGBA {
	unit := u.Int("uUpsample")
	st := texelStep(s, unit)

	var sum RGB
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			// Tent weights: 4 at the center, 2 on the edges, 1 at the corners.
			wt := float32((2 - math.Abs(dx)) * (2 - math.Abs(dy)))
			c := s.Sample(unit, [2]float32{f.UV[0] + float32(dx)*st[0], f.UV[1] + float32(dy)*st[1]})
			sum = sum.Add(c.RGB().Scale(wt))
		}
	}

	prev := s.Sample(u.Int("uPrevious"), f.UV)
	return sum.Scale(1.0 / 16).Add(prev.RGB()).RGBA(1)
}

const bloomCombineSource = `#version 410 core

uniform float uExposure;
uniform sampler2D uColor;
uniform sampler2D uBloom;

in vec2 vUv;
out vec4 oColor;

void main() {
    vec4 smpl = texture(uColor, vUv);
    vec3 color = smpl.rgb * smpl.a;
    vec3 bloom = texture(uBloom, vUv).rgb;
    vec3 mapped = vec3(1.0) - exp(-(color + bloom) * uExposure);
    oColor = vec4(mapped, 1.0);
}
`

func ShadeBloomCombine(f *Fragment, u Uniforms, s Sampler) RGBA {
	smpl := s.Sample(u.Int("uColor"), f.UV)
	bloom := s.Sample(u.Int("uBloom"), f.UV)
	exposure := u.Float("uExposure")
	tonemap := func(c, b float32) float32 { return 1 - math.Exp(-(c+b)*exposure) }
	return RGBA{
		R: tonemap(smpl.R*smpl.A, bloom.R),
		G: tonemap(smpl.G*smpl.A, bloom.G),
		B: tonemap(smpl.B*smpl.A, bloom.B),
		A: 1,
	}
}
