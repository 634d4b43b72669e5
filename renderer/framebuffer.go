// renderer/framebuffer.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
)

var ErrInvalidFramebuffer = errors.New("invalid framebuffer")

// Framebuffer is an off-screen render target with one or more color
// attachments. Attachments are (re)created whenever the framebuffer's size
// changes; their previous contents are not preserved.
type Framebuffer struct {
	r           Renderer
	id          uint32
	formats     []TextureFormat
	attachments []*Texture
	width       int
	height      int
}

func NewFramebuffer(r Renderer, formats []TextureFormat, width, height int) (*Framebuffer, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: no attachments", ErrInvalidFramebuffer)
	}
	for _, f := range formats {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
		}
	}

	fb := &Framebuffer{r: r, formats: append([]TextureFormat(nil), formats...)}
	if err := fb.Resize(width, height); err != nil {
		return nil, err
	}
	return fb, nil
}

// Resize recreates the framebuffer's attachments at the given size. It
// does nothing if the framebuffer is already that size.
func (fb *Framebuffer) Resize(width, height int) error {
	if width == fb.width && height == fb.height && fb.id != 0 {
		return nil
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFramebuffer, width, height)
	}

	fb.release()

	var ids []uint32
	for _, f := range fb.formats {
		tex, err := NewTexture(fb.r, TextureDesc{Format: f, Width: width, Height: height, Filter: FilterLinear}, nil)
		if err != nil {
			fb.release()
			return err
		}
		fb.attachments = append(fb.attachments, tex)
		ids = append(ids, tex.Handle())
	}

	id, err := fb.r.CreateFramebuffer(ids)
	if err != nil {
		fb.release()
		return fmt.Errorf("%dx%d framebuffer: %w", width, height, err)
	}
	fb.id, fb.width, fb.height = id, width, height
	return nil
}

func (fb *Framebuffer) release() {
	if fb.id != 0 {
		fb.r.DestroyFramebuffer(fb.id)
		fb.id = 0
	}
	for _, t := range fb.attachments {
		t.Dispose()
	}
	fb.attachments = nil
	fb.width, fb.height = 0, 0
}

// Bind makes the framebuffer the current render target with a viewport
// covering all of it. Most callers should use Context.BindFramebuffer,
// which first flushes any pending geometry.
func (fb *Framebuffer) Bind() {
	fb.r.BindFramebuffer(fb.id, fb.width, fb.height)
}

func (fb *Framebuffer) Handle() uint32 { return fb.id }

func (fb *Framebuffer) Size() [2]int { return [2]int{fb.width, fb.height} }

func (fb *Framebuffer) Width() int  { return fb.width }
func (fb *Framebuffer) Height() int { return fb.height }

func (fb *Framebuffer) NumAttachments() int { return len(fb.attachments) }

// Attachment returns the i'th color attachment. The returned texture is
// owned by the framebuffer and is replaced when the framebuffer is
// resized.
func (fb *Framebuffer) Attachment(i int) *Texture {
	if i < 0 || i >= len(fb.attachments) {
		panic(fmt.Sprintf("framebuffer attachment %d out of range [0,%d)", i, len(fb.attachments)))
	}
	return fb.attachments[i]
}

func (fb *Framebuffer) Dispose() {
	if fb != nil {
		fb.release()
	}
}
