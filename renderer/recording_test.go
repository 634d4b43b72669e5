// renderer/recording_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"testing"
)

// recordingRenderer is a Renderer that keeps copies of the batches it's
// asked to draw rather than drawing them.
type recordingRenderer struct {
	units     int
	nextID    uint32
	textures  map[uint32]TextureDesc
	destroyed map[uint32]int
	fbs       map[uint32][]uint32
	bound     uint32
	viewport  [2]int
	batches   []Batch
	clears    []RGBA
	// stale records textures that were destroyed before a batch using
	// them was drawn.
	stale []uint32
}

func newRecordingRenderer(units int) *recordingRenderer {
	return &recordingRenderer{
		units:     units,
		textures:  make(map[uint32]TextureDesc),
		destroyed: make(map[uint32]int),
		fbs:       make(map[uint32][]uint32),
	}
}

func (r *recordingRenderer) MaxTextureUnits() int { return r.units }

func (r *recordingRenderer) CreateTexture(desc TextureDesc, pixels []byte) (uint32, error) {
	r.nextID++
	r.textures[r.nextID] = desc
	return r.nextID, nil
}

func (r *recordingRenderer) UpdateTexture(id uint32, pixels []byte) error {
	if _, ok := r.textures[id]; !ok {
		return fmt.Errorf("%d: unknown texture", id)
	}
	return nil
}

func (r *recordingRenderer) DestroyTexture(id uint32) {
	r.destroyed[id]++
	delete(r.textures, id)
}

func (r *recordingRenderer) CreateFramebuffer(attachments []uint32) (uint32, error) {
	r.nextID++
	r.fbs[r.nextID] = attachments
	return r.nextID, nil
}

func (r *recordingRenderer) DestroyFramebuffer(id uint32) {
	r.destroyed[id]++
	delete(r.fbs, id)
}

func (r *recordingRenderer) BindFramebuffer(id uint32, w, h int) {
	r.bound, r.viewport = id, [2]int{w, h}
}

func (r *recordingRenderer) CreateProgram(p *Program) (uint32, error) {
	r.nextID++
	return r.nextID, nil
}

func (r *recordingRenderer) DestroyProgram(id uint32) { r.destroyed[id]++ }
func (r *recordingRenderer) Clear(c RGBA)             { r.clears = append(r.clears, c) }
func (r *recordingRenderer) SetSRGB(bool)             {}
func (r *recordingRenderer) Dispose()                 {}

func (r *recordingRenderer) Draw(b *Batch) RendererStats {
	for _, id := range b.Textures {
		if _, ok := r.textures[id]; id != 0 && !ok {
			r.stale = append(r.stale, id)
		}
	}
	rec := *b
	rec.Vertices = append([]Vertex(nil), b.Vertices...)
	rec.Textures = append([]uint32(nil), b.Textures...)
	r.batches = append(r.batches, rec)
	return MakeBatchStats(b, 0)
}

func (r *recordingRenderer) vertexCount() int {
	n := 0
	for _, b := range r.batches {
		n += len(b.Vertices)
	}
	return n
}

func newTestContext(t *testing.T, units int) (*Context, *recordingRenderer) {
	t.Helper()
	r := newRecordingRenderer(units)
	c, err := NewContext(r, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	c.SetWindowSize(100, 100)
	return c, r
}

func newTestTexture(t *testing.T, r Renderer) *Texture {
	t.Helper()
	tex, err := NewTexture(r, TextureDesc{Format: TextureFormatRGBA8, Width: 2, Height: 2}, nil)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

func expectPanic(t *testing.T, what string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", what)
		}
	}()
	f()
}

func near(a, b float32) bool {
	d := a - b
	return d > -1e-3 && d < 1e-3
}
