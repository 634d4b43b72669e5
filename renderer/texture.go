// renderer/texture.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/lumen2d/lumen/math"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported texture format")
	ErrInvalidTexture    = errors.New("invalid texture description")
)

type TextureFormat int

const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatRGBA32F
	TextureFormatRGB8
	TextureFormatRGB32F
	TextureFormatR8
	TextureFormatR16F
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "rgba8"
	case TextureFormatRGBA32F:
		return "rgba32f"
	case TextureFormatRGB8:
		return "rgb8"
	case TextureFormatRGB32F:
		return "rgb32f"
	case TextureFormatR8:
		return "r8"
	case TextureFormatR16F:
		return "r16f"
	default:
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
}

func (f TextureFormat) Valid() bool {
	return f >= TextureFormatRGBA8 && f <= TextureFormatR16F
}

func (f TextureFormat) Channels() int {
	switch f {
	case TextureFormatRGBA8, TextureFormatRGBA32F:
		return 4
	case TextureFormatRGB8, TextureFormatRGB32F:
		return 3
	default:
		return 1
	}
}

// IsFloat reports whether pixel data for the format is given as float32s
// rather than bytes. (Note that r16f is uploaded as float32 and converted
// by the GPU.)
func (f TextureFormat) IsFloat() bool {
	return f == TextureFormatRGBA32F || f == TextureFormatRGB32F || f == TextureFormatR16F
}

// UploadBytesPerTexel returns the size of a texel in the pixel data passed
// to CreateTexture and UpdateTexture.
func (f TextureFormat) UploadBytesPerTexel() int {
	if f.IsFloat() {
		return 4 * f.Channels()
	}
	return f.Channels()
}

// GPUBytesPerTexel returns the size of a texel as stored by the GPU.
func (f TextureFormat) GPUBytesPerTexel() int {
	switch f {
	case TextureFormatR16F:
		return 2
	case TextureFormatRGBA32F, TextureFormatRGB32F:
		return 4 * f.Channels()
	default:
		return f.Channels()
	}
}

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
	FilterLinearMipmapLinear
)

func (m FilterMode) String() string {
	switch m {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	case FilterLinearMipmapLinear:
		return "linear_mipmap_linear"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

type TextureDesc struct {
	Format        TextureFormat
	Width, Height int
	Filter        FilterMode
}

// MipLevels returns the number of levels in the texture's mip chain; it is
// 1 unless the filter mode uses mipmaps.
func (d TextureDesc) MipLevels() int {
	if d.Filter != FilterLinearMipmapLinear {
		return 1
	}
	return math.Log2Int(max(d.Width, d.Height)) + 1
}

// UploadSize returns the number of bytes of pixel data for the top level
// of the texture.
func (d TextureDesc) UploadSize() int {
	return d.Width * d.Height * d.Format.UploadBytesPerTexel()
}

// GPUSize returns an estimate of the GPU memory used by the texture,
// including its mip chain.
func (d TextureDesc) GPUSize() int {
	n := 0
	w, h := d.Width, d.Height
	for range d.MipLevels() {
		n += w * h * d.Format.GPUBytesPerTexel()
		w, h = max(1, w/2), max(1, h/2)
	}
	return n
}

func (d TextureDesc) Validate() error {
	if !d.Format.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, d.Format)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTexture, d.Width, d.Height)
	}
	if d.Filter < FilterNearest || d.Filter > FilterLinearMipmapLinear {
		return fmt.Errorf("%w: %s", ErrInvalidTexture, d.Filter)
	}
	return nil
}

func (d TextureDesc) checkPixels(pixels []byte) error {
	if pixels != nil && len(pixels) != d.UploadSize() {
		return fmt.Errorf("%w: %d bytes of pixel data for %dx%d %s, expected %d", ErrInvalidTexture,
			len(pixels), d.Width, d.Height, d.Format, d.UploadSize())
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// Texture

// Texture owns a GPU texture. Textures should be passed by pointer; the
// underlying GPU resource is released by the first call to Dispose.
type Texture struct {
	r    Renderer
	id   uint32
	desc TextureDesc
}

// NewTexture creates a texture on the given renderer. pixels may be nil,
// in which case the texture's contents are undefined.
func NewTexture(r Renderer, desc TextureDesc, pixels []byte) (*Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if err := desc.checkPixels(pixels); err != nil {
		return nil, err
	}
	id, err := r.CreateTexture(desc, pixels)
	if err != nil {
		return nil, fmt.Errorf("%dx%d %s texture: %w", desc.Width, desc.Height, desc.Format, err)
	}
	return &Texture{r: r, id: id, desc: desc}, nil
}

// NewTextureFromImage creates an RGBA8 texture from the given image. Rows
// are flipped so that the top of the image is at v=1, which makes the
// image upright when drawn with Quad.
func NewTextureFromImage(r Renderer, img image.Image, filter FilterMode) (*Texture, error) {
	nx, ny := img.Bounds().Dx(), img.Bounds().Dy()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, nx, ny))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	pix := make([]byte, 4*nx*ny)
	for y := range ny {
		src := rgba.Pix[(ny-1-y)*rgba.Stride:]
		copy(pix[4*nx*y:4*nx*(y+1)], src[:4*nx])
	}

	desc := TextureDesc{Format: TextureFormatRGBA8, Width: nx, Height: ny, Filter: filter}
	return NewTexture(r, desc, pix)
}

// Handle returns the renderer's handle for the texture; it is 0 after the
// texture has been disposed.
func (t *Texture) Handle() uint32 { return t.id }

func (t *Texture) Width() int  { return t.desc.Width }
func (t *Texture) Height() int { return t.desc.Height }

func (t *Texture) Size() [2]int { return [2]int{t.desc.Width, t.desc.Height} }

func (t *Texture) Format() TextureFormat { return t.desc.Format }
func (t *Texture) Filter() FilterMode    { return t.desc.Filter }
func (t *Texture) Desc() TextureDesc     { return t.desc }

// Upload replaces the texture's contents.
func (t *Texture) Upload(pixels []byte) error {
	if t.id == 0 {
		return fmt.Errorf("%w: texture has been disposed", ErrInvalidTexture)
	}
	if pixels == nil {
		return fmt.Errorf("%w: no pixel data", ErrInvalidTexture)
	}
	if err := t.desc.checkPixels(pixels); err != nil {
		return err
	}
	return t.r.UpdateTexture(t.id, pixels)
}

func (t *Texture) Dispose() {
	if t != nil && t.id != 0 {
		t.r.DestroyTexture(t.id)
		t.id = 0
	}
}

// Slice returns the sprite for cell (x, y) of the texture when it is
// divided into a grid of cols x rows cells.
func (t *Texture) Slice(cols, rows, x, y int) Sprite {
	step := [2]float32{1 / float32(cols), 1 / float32(rows)}
	return Sprite{
		Texture:      t,
		UVBottomLeft: math.Mul2f(step, [2]float32{float32(x), float32(y)}),
		UVTopRight:   math.Mul2f(step, [2]float32{float32(x + 1), float32(y + 1)}),
	}
}

// SliceAll divides the texture into a grid of cols x rows sprites,
// returned in row-major order.
func (t *Texture) SliceAll(cols, rows int) []Sprite {
	s := make([]Sprite, 0, cols*rows)
	for y := range rows {
		for x := range cols {
			s = append(s, t.Slice(cols, rows, x, y))
		}
	}
	return s
}

// Sprite is a rectangular region of a texture, specified in texture
// coordinates.
type Sprite struct {
	Texture      *Texture
	UVBottomLeft [2]float32
	UVTopRight   [2]float32
}
