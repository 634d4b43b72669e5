// renderer/texture_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestTextureDesc(t *testing.T) {
	for _, test := range []struct {
		desc   TextureDesc
		mips   int
		upload int
		gpu    int
	}{
		{TextureDesc{Format: TextureFormatRGBA8, Width: 4, Height: 2}, 1, 32, 32},
		{TextureDesc{Format: TextureFormatRGB32F, Width: 2, Height: 2}, 1, 48, 48},
		{TextureDesc{Format: TextureFormatR16F, Width: 2, Height: 2}, 1, 16, 8},
		{TextureDesc{Format: TextureFormatR8, Width: 4, Height: 4, Filter: FilterLinearMipmapLinear}, 3, 16, 16 + 4 + 1},
	} {
		if m := test.desc.MipLevels(); m != test.mips {
			t.Errorf("%+v: %d mip levels, expected %d", test.desc, m, test.mips)
		}
		if s := test.desc.UploadSize(); s != test.upload {
			t.Errorf("%+v: upload size %d, expected %d", test.desc, s, test.upload)
		}
		if s := test.desc.GPUSize(); s != test.gpu {
			t.Errorf("%+v: GPU size %d, expected %d", test.desc, s, test.gpu)
		}
	}

	if err := (TextureDesc{Format: TextureFormat(100), Width: 1, Height: 1}).Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if err := (TextureDesc{Width: 0, Height: 1}).Validate(); !errors.Is(err, ErrInvalidTexture) {
		t.Errorf("expected ErrInvalidTexture, got %v", err)
	}
	r := newRecordingRenderer(16)
	if _, err := NewTexture(r, TextureDesc{Width: 2, Height: 2}, make([]byte, 3)); !errors.Is(err, ErrInvalidTexture) {
		t.Errorf("expected ErrInvalidTexture for short pixel data, got %v", err)
	}
}

func TestTextureDispose(t *testing.T) {
	r := newRecordingRenderer(16)
	tex := newTestTexture(t, r)
	h := tex.Handle()

	tex.Dispose()
	tex.Dispose()
	if r.destroyed[h] != 1 {
		t.Errorf("texture destroyed %d times, expected once", r.destroyed[h])
	}
	if tex.Handle() != 0 {
		t.Errorf("disposed texture still has handle %d", tex.Handle())
	}
	if err := tex.Upload(make([]byte, 16)); !errors.Is(err, ErrInvalidTexture) {
		t.Errorf("expected ErrInvalidTexture uploading to disposed texture, got %v", err)
	}
}

func TestTextureSlice(t *testing.T) {
	r := newRecordingRenderer(16)
	tex := newTestTexture(t, r)

	sp := tex.Slice(4, 2, 1, 1)
	if sp.UVBottomLeft != [2]float32{0.25, 0.5} || sp.UVTopRight != [2]float32{0.5, 1} {
		t.Errorf("slice %v - %v", sp.UVBottomLeft, sp.UVTopRight)
	}

	all := tex.SliceAll(4, 2)
	if len(all) != 8 {
		t.Fatalf("%d sprites, expected 8", len(all))
	}
	if all[5] != sp {
		t.Errorf("SliceAll isn't in row-major order")
	}

	c, cr := newTestContext(t, 16)
	sp = Sprite{Texture: newTestTexture(t, cr), UVBottomLeft: [2]float32{0.25, 0.5}, UVTopRight: [2]float32{0.5, 1}}
	c.Sprite(sp, [2]float32{0, 0}, [2]float32{1, 1})
	c.Flush()
	v := cr.batches[0].Vertices
	if v[0].UV != sp.UVBottomLeft || v[2].UV != sp.UVTopRight || v[0].Unit != 1 {
		t.Errorf("sprite drawn with uv %v %v unit %d", v[0].UV, v[2].UV, v[0].Unit)
	}
}

func TestTextureFromImage(t *testing.T) {
	sr := NewSoftwareRenderer(nil, 1, 1)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255}) // top
	img.Set(0, 1, color.NRGBA{B: 255, A: 255}) // bottom

	tex, err := NewTextureFromImage(sr, img, FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	pix, _, err := sr.TexturePixels(tex.Handle())
	if err != nil {
		t.Fatal(err)
	}
	if pix[0] != (RGBA{0, 0, 1, 1}) || pix[1] != (RGBA{1, 0, 0, 1}) {
		t.Errorf("image rows not flipped: %v", pix)
	}
}

func TestFramebufferResize(t *testing.T) {
	r := newRecordingRenderer(16)
	fb, err := NewFramebuffer(r, []TextureFormat{TextureFormatRGB32F, TextureFormatRGBA8}, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if fb.NumAttachments() != 2 || fb.Attachment(1).Format() != TextureFormatRGBA8 {
		t.Errorf("unexpected attachments")
	}

	id, tex := fb.Handle(), fb.Attachment(0).Handle()
	if err := fb.Resize(8, 4); err != nil {
		t.Fatal(err)
	}
	if fb.Handle() != id || fb.Attachment(0).Handle() != tex {
		t.Errorf("same-size resize recreated the framebuffer")
	}

	if err := fb.Resize(16, 8); err != nil {
		t.Fatal(err)
	}
	if fb.Handle() == id || r.destroyed[id] != 1 || r.destroyed[tex] != 1 {
		t.Errorf("resize didn't release old resources")
	}
	if fb.Size() != [2]int{16, 8} || fb.Attachment(0).Size() != [2]int{16, 8} {
		t.Errorf("resized to %v", fb.Size())
	}
	if fb.Attachment(0).Filter() != FilterLinear {
		t.Errorf("attachment filter %s", fb.Attachment(0).Filter())
	}

	if err := fb.Resize(0, 8); !errors.Is(err, ErrInvalidFramebuffer) {
		t.Errorf("expected ErrInvalidFramebuffer, got %v", err)
	}
	expectPanic(t, "attachment out of range", func() { fb.Attachment(2) })

	fb.Dispose()
	fb.Dispose()
}
