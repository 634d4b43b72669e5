// renderer/context_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"testing"

	"github.com/lumen2d/lumen/math"
)

func TestAutomaticSubmission(t *testing.T) {
	for _, n := range []int{3, VertexBufferCapacity - 3, VertexBufferCapacity, VertexBufferCapacity + 3,
		2*VertexBufferCapacity + 6} {
		c, r := newTestContext(t, 16)

		c.Begin(PrimitiveTriangles)
		for i := range n {
			c.Vertex([2]float32{float32(i), 0})
		}
		c.End()
		c.Flush()

		expectedCalls := (n + VertexBufferCapacity - 1) / VertexBufferCapacity
		if len(r.batches) != expectedCalls {
			t.Errorf("%d vertices: got %d draw calls, expected %d", n, len(r.batches), expectedCalls)
		}
		if r.vertexCount() != n {
			t.Errorf("%d vertices: %d drawn", n, r.vertexCount())
		}
		if st := c.Stats(); st.DrawCalls() != expectedCalls || st.Vertices() != n {
			t.Errorf("%d vertices: stats %s", n, st.String())
		}
		// Vertices should be drawn in the order given.
		if n > VertexBufferCapacity && r.batches[1].Vertices[0].Position[0] != VertexBufferCapacity {
			t.Errorf("second batch starts with vertex %v", r.batches[1].Vertices[0].Position)
		}
	}
}

func TestFlushEmpty(t *testing.T) {
	c, r := newTestContext(t, 16)
	c.Flush()
	c.Flush()
	if len(r.batches) != 0 {
		t.Errorf("empty flush issued %d draw calls", len(r.batches))
	}
}

func TestSubmissionKeepsTextures(t *testing.T) {
	c, r := newTestContext(t, 16)
	tex := newTestTexture(t, r)

	unit := c.Texture(tex)
	c.Begin(PrimitiveTriangles)
	for range VertexBufferCapacity + 3 {
		c.Vertex([2]float32{0, 0})
	}
	c.End()
	c.Flush()

	if len(r.batches) != 2 {
		t.Fatalf("got %d batches, expected 2", len(r.batches))
	}
	for i, b := range r.batches {
		if b.Textures[unit] != tex.Handle() {
			t.Errorf("batch %d: unit %d has texture %d, expected %d", i, unit, b.Textures[unit], tex.Handle())
		}
		if b.Vertices[0].Unit != unit {
			t.Errorf("batch %d: vertex unit %d, expected %d", i, b.Vertices[0].Unit, unit)
		}
	}
}

func TestTextureSlots(t *testing.T) {
	c, r := newTestContext(t, 16)
	a, b := newTestTexture(t, r), newTestTexture(t, r)

	ua := c.Texture(a)
	if ua != 1 {
		t.Errorf("first texture got unit %d, expected 1", ua)
	}
	ub := c.Texture(b)
	if ub != 2 {
		t.Errorf("second texture got unit %d, expected 2", ub)
	}
	if u := c.Texture(a); u != ua {
		t.Errorf("rebinding texture gave unit %d, expected %d", u, ua)
	}

	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.Flush()

	slots := c.BoundTextures()
	if slots[0] != c.white.Handle() {
		t.Errorf("slot 0 is %d after flush, expected white texture %d", slots[0], c.white.Handle())
	}
	for i, s := range slots[1:] {
		if s != 0 {
			t.Errorf("slot %d is %d after flush, expected empty", i+1, s)
		}
	}
	if len(r.batches) != 1 {
		t.Fatalf("got %d batches, expected 1", len(r.batches))
	}
	if r.batches[0].Textures[1] != a.Handle() || r.batches[0].Textures[2] != b.Handle() {
		t.Errorf("batch textures %v", r.batches[0].Textures)
	}
	if r.batches[0].Vertices[0].Unit != ua {
		t.Errorf("quad drawn with unit %d, expected %d", r.batches[0].Vertices[0].Unit, ua)
	}

	c.NoTexture()
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.Flush()
	if u := r.batches[1].Vertices[0].Unit; u != 0 {
		t.Errorf("NoTexture quad drawn with unit %d", u)
	}
}

func TestTextureSlotExhaustion(t *testing.T) {
	c, r := newTestContext(t, 4)
	if c.TextureUnits() != 4 {
		t.Fatalf("context has %d units, expected 4", c.TextureUnits())
	}

	var texs []*Texture
	for range 4 {
		texs = append(texs, newTestTexture(t, r))
	}
	for i, tex := range texs[:3] {
		if u := c.Texture(tex); int(u) != i+1 {
			t.Errorf("texture %d got unit %d", i, u)
		}
		c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	}
	if len(r.batches) != 0 {
		t.Fatalf("unexpected draw before slots were exhausted")
	}

	// All units are taken; this should flush and then get unit 1.
	if u := c.Texture(texs[3]); u != 1 {
		t.Errorf("texture after exhaustion got unit %d, expected 1", u)
	}
	if len(r.batches) != 1 || len(r.batches[0].Vertices) != 18 {
		t.Errorf("expected a single flushed batch of 18 vertices")
	}

	// Textures should flush when the set can't fit in what's left.
	units := c.Textures(texs[0], texs[1], texs[2])
	if len(r.batches) != 1 {
		t.Errorf("Textures flushed with nothing pending")
	}
	if units[0] != 1 || units[1] != 2 || units[2] != 3 {
		t.Errorf("Textures returned units %v", units)
	}

	expectPanic(t, "too many textures", func() { c.Textures(texs...) })
}

func TestDisposedTexture(t *testing.T) {
	c, r := newTestContext(t, 16)
	tex := newTestTexture(t, r)
	tex.Dispose()
	expectPanic(t, "disposed texture", func() { c.Texture(tex) })
}

func TestPushPop(t *testing.T) {
	c, _ := newTestContext(t, 16)

	before := c.State()
	c.Push()
	c.Translate([2]float32{10, 20})
	c.Rotate(1)
	c.Scale([2]float32{2, 3})
	c.Color(RGBA{1, 0, 0, 1})
	c.Pivot([2]float32{0, 1})
	c.UV([2]float32{0.25, 0.75})
	c.GlobalAlpha(0.5)
	if c.StackDepth() != 2 {
		t.Errorf("stack depth %d, expected 2", c.StackDepth())
	}
	c.Pop()

	if c.State() != before {
		t.Errorf("state after Pop %+v differs from %+v", c.State(), before)
	}

	c.With(func() { c.Color(Black) })
	if c.State().Color != White {
		t.Errorf("With didn't restore color")
	}

	expectPanic(t, "unbalanced Pop", func() { c.Pop() })
}

func TestIncrementalInverse(t *testing.T) {
	c, _ := newTestContext(t, 16)
	c.Translate([2]float32{5, -3})
	c.Rotate(0.7)
	c.Scale([2]float32{2, 0.5})
	c.Translate([2]float32{-1, 4})
	c.Rotate(-1.3)

	s := c.State()
	if !s.Transform.PostMultiply(s.InverseTransform).Equal(math.Identity4x4(), 1e-5) {
		t.Errorf("transform * inverse = %v", s.Transform.PostMultiply(s.InverseTransform))
	}
	inv, err := s.Transform.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Equal(s.InverseTransform, 1e-4) {
		t.Errorf("incremental inverse %v, expected %v", s.InverseTransform, inv)
	}

	c.LoadIdentity()
	if c.State().Transform != math.Identity4x4() || c.State().InverseTransform != math.Identity4x4() {
		t.Errorf("LoadIdentity didn't reset transforms")
	}
}

func TestVerticesAreTransformedImmediately(t *testing.T) {
	c, r := newTestContext(t, 16)

	c.Translate([2]float32{10, 0})
	c.Begin(PrimitiveTriangles)
	c.Vertex([2]float32{1, 1})
	c.Translate([2]float32{100, 100}) // doesn't affect vertices already given
	c.Vertex([2]float32{1, 1})
	c.Vertex([2]float32{0, 0})
	c.End()
	c.Flush()

	v := r.batches[0].Vertices
	if v[0].Position != [3]float32{11, 1, 0} {
		t.Errorf("first vertex %v", v[0].Position)
	}
	if v[1].Position != [3]float32{111, 101, 0} {
		t.Errorf("second vertex %v", v[1].Position)
	}
}

func TestQuadPivot(t *testing.T) {
	for _, test := range []struct {
		pivot  [2]float32
		p0, p1 [2]float32
	}{
		{pivot: [2]float32{0, 0}, p0: [2]float32{0, 0}, p1: [2]float32{10, 10}},
		{pivot: [2]float32{0.5, 0.5}, p0: [2]float32{-5, -5}, p1: [2]float32{5, 5}},
		{pivot: [2]float32{1, 0}, p0: [2]float32{-10, 0}, p1: [2]float32{0, 10}},
	} {
		c, r := newTestContext(t, 16)
		c.Pivot(test.pivot)
		c.Quad([2]float32{0, 0}, [2]float32{10, 10})
		c.Flush()

		v := r.batches[0].Vertices
		if len(v) != 6 {
			t.Fatalf("quad has %d vertices", len(v))
		}
		// Corners are emitted as 0,1,2 0,2,3 starting at the lower left.
		if bl := v[0].Position; bl[0] != test.p0[0] || bl[1] != test.p0[1] {
			t.Errorf("pivot %v: lower left %v, expected %v", test.pivot, bl, test.p0)
		}
		if tr := v[2].Position; tr[0] != test.p1[0] || tr[1] != test.p1[1] {
			t.Errorf("pivot %v: upper right %v, expected %v", test.pivot, tr, test.p1)
		}
		if v[0].UV != [2]float32{0, 0} || v[2].UV != [2]float32{1, 1} || v[5].UV != [2]float32{0, 1} {
			t.Errorf("unexpected quad texture coordinates")
		}
	}
}

func TestGlobalAlpha(t *testing.T) {
	c, r := newTestContext(t, 16)
	c.Color(RGBA{1, 1, 1, 0.8})
	c.GlobalAlpha(0.5)
	c.GlobalAlpha(0.5)
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.Flush()

	if a := r.batches[0].Vertices[0].Color.A; !near(a, 0.2) {
		t.Errorf("alpha %f, expected 0.2", a)
	}
}

func TestContractViolations(t *testing.T) {
	c, _ := newTestContext(t, 16)

	expectPanic(t, "Vertex outside Begin", func() { c.Vertex([2]float32{0, 0}) })
	expectPanic(t, "End without Begin", func() { c.End() })

	for _, test := range []struct {
		name string
		mode PrimitiveMode
		n    int
	}{
		{"odd lines", PrimitiveLines, 3},
		{"short line strip", PrimitiveLineStrip, 2},
		{"short line loop", PrimitiveLineLoop, 2},
		{"partial triangle", PrimitiveTriangles, 4},
	} {
		c.Reset()
		expectPanic(t, test.name, func() {
			c.Begin(test.mode)
			for i := range test.n {
				c.Vertex([2]float32{float32(i), float32(i * i)})
			}
			c.End()
		})
	}

	c.Reset()
	c.Begin(PrimitiveTriangles)
	expectPanic(t, "nested Begin", func() { c.Begin(PrimitiveLines) })
	expectPanic(t, "Pivot inside Begin", func() { c.Pivot([2]float32{0, 0}) })
	expectPanic(t, "Quad inside Begin", func() { c.Quad([2]float32{0, 0}, [2]float32{1, 1}) })
	c.Vertex([2]float32{0, 0})
	expectPanic(t, "Flush mid-triangle", func() { c.Flush() })
}

func TestReset(t *testing.T) {
	c, r := newTestContext(t, 16)
	tex := newTestTexture(t, r)

	c.Push()
	c.Translate([2]float32{1, 1})
	c.LineWidth(4)
	c.Texture(tex)
	if err := c.Ortho(100, 100); err != nil {
		t.Fatal(err)
	}
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.Reset()

	if c.StackDepth() != 1 || c.State() != DefaultState() {
		t.Errorf("stack not reset")
	}
	if c.Projection() != math.Identity4x4() {
		t.Errorf("projection not reset")
	}
	if c.PendingVertices() != 0 || c.CurrentLineWidth() != 1 {
		t.Errorf("buffers not reset")
	}
	if c.BoundTextures()[1] != 0 {
		t.Errorf("slots not reset")
	}
	c.Flush()
	if len(r.batches) != 0 {
		t.Errorf("Reset didn't discard pending vertices")
	}
}

func TestProjection(t *testing.T) {
	c, r := newTestContext(t, 16)

	if err := c.Ortho(200, 100); err != nil {
		t.Fatal(err)
	}
	bl, tr := c.ViewportBounds()
	if !near(bl[0], 0) || !near(bl[1], 0) || !near(tr[0], 200) || !near(tr[1], 100) {
		t.Errorf("viewport bounds %v - %v", bl, tr)
	}
	if sz := c.ProjectionSize(); !near(sz[0], 200) || !near(sz[1], 100) {
		t.Errorf("projection size %v", sz)
	}

	// Geometry given before a projection change is drawn with the old one.
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	if err := c.SetProjection(math.Identity4x4()); err != nil {
		t.Fatal(err)
	}
	if len(r.batches) != 1 || r.batches[0].Projection == math.Identity4x4() {
		t.Errorf("projection change didn't submit pending geometry")
	}

	var singular math.Matrix4
	if err := c.SetProjection(singular); err == nil {
		t.Errorf("expected error for singular projection")
	}
	if c.Projection() != math.Identity4x4() {
		t.Errorf("failed SetProjection changed the projection")
	}
}

func TestProgramsAndUniforms(t *testing.T) {
	c, r := newTestContext(t, 16)
	p, err := NewProgram(r, nil, "test", DefaultProgramSource, ShadeDefault)
	if err != nil {
		t.Fatal(err)
	}

	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.UseProgram(p)
	c.Uniform("uValue", float32(2))
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.Uniform("uValue", float32(3))
	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.DefaultProgram()
	c.Flush()

	if len(r.batches) != 3 {
		t.Fatalf("got %d batches, expected 3", len(r.batches))
	}
	if r.batches[0].Program == p || r.batches[1].Program != p {
		t.Errorf("batches drawn with wrong programs")
	}
	if v := r.batches[1].Uniforms.Float("uValue"); v != 2 {
		t.Errorf("first uniform value %f", v)
	}
	if v := r.batches[2].Uniforms.Float("uValue"); v != 3 {
		t.Errorf("second uniform value %f", v)
	}
}

func TestFramebufferBinding(t *testing.T) {
	c, r := newTestContext(t, 16)
	fb, err := NewFramebuffer(r, []TextureFormat{TextureFormatRGBA8}, 32, 16)
	if err != nil {
		t.Fatal(err)
	}

	c.Quad([2]float32{0, 0}, [2]float32{1, 1})
	c.BindFramebuffer(fb)
	if len(r.batches) != 1 {
		t.Errorf("binding framebuffer didn't flush")
	}
	if r.bound != fb.Handle() || r.viewport != [2]int{32, 16} {
		t.Errorf("bound %d viewport %v", r.bound, r.viewport)
	}

	c.Clear(Black)
	c.UnbindFramebuffer()
	if r.bound != 0 || r.viewport != [2]int{100, 100} {
		t.Errorf("after unbind: bound %d viewport %v", r.bound, r.viewport)
	}
	if len(r.clears) != 1 {
		t.Errorf("got %d clears", len(r.clears))
	}
}
