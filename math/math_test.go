// math/math_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"
	"testing"
)

func TestMatrix4Inverse(t *testing.T) {
	for i, m := range []Matrix4{
		Identity4x4(),
		Identity4x4().Translate(3, -2, 0.5),
		Identity4x4().Rotate(0.7).Scale(2, 3, 1),
		Identity4x4().Ortho(0, 1280, 0, 720, -1, 1),
		Identity4x4().Translate(10, 20, 0).Rotate(-1.2).Scale(0.25, 4, 1).Translate(-3, 1, 0),
	} {
		inv, err := m.Inverse()
		if err != nil {
			t.Fatalf("%d: unexpected error %v", i, err)
		}
		if p := m.PostMultiply(inv); !p.Equal(Identity4x4(), 1e-4) {
			t.Errorf("%d: m*inv(m) = %v, expected identity", i, p)
		}
		if p := inv.PostMultiply(m); !p.Equal(Identity4x4(), 1e-4) {
			t.Errorf("%d: inv(m)*m = %v, expected identity", i, p)
		}
	}
}

func TestMatrix4Singular(t *testing.T) {
	m := Identity4x4().Scale(1, 0, 1)
	if d := m.Determinant(); d != 0 {
		t.Errorf("determinant %f, expected 0", d)
	}
	if _, err := m.Inverse(); !errors.Is(err, ErrSingularMatrix) {
		t.Errorf("expected ErrSingularMatrix, got %v", err)
	}
}

func TestMatrix4TransformOrder(t *testing.T) {
	// Post-multiplication applies the most recently added operation first.
	m := Identity4x4().Translate(10, 0, 0).Scale(2, 2, 1)
	p := m.TransformPoint2([2]float32{1, 1})
	if p != [2]float32{12, 2} {
		t.Errorf("got %v, expected [12 2]", p)
	}

	r := Identity4x4().Rotate(Pi() / 2)
	q := r.TransformPoint2([2]float32{1, 0})
	if Abs(q[0]) > 1e-6 || Abs(q[1]-1) > 1e-6 {
		t.Errorf("rotation of +x by 90 degrees gave %v, expected [0 1]", q)
	}

	v := Identity4x4().Translate(5, 5, 0).TransformVector2([2]float32{1, 2})
	if v != [2]float32{1, 2} {
		t.Errorf("translation changed a direction vector: %v", v)
	}
}

func TestOrtho(t *testing.T) {
	m := Identity4x4().Ortho(0, 800, 0, 600, -1, 1)
	for _, tc := range []struct {
		p, ndc [2]float32
	}{
		{p: [2]float32{0, 0}, ndc: [2]float32{-1, -1}},
		{p: [2]float32{800, 600}, ndc: [2]float32{1, 1}},
		{p: [2]float32{400, 300}, ndc: [2]float32{0, 0}},
	} {
		if got := m.TransformPoint2(tc.p); Abs(got[0]-tc.ndc[0]) > 1e-6 || Abs(got[1]-tc.ndc[1]) > 1e-6 {
			t.Errorf("%v: got %v, expected %v", tc.p, got, tc.ndc)
		}
	}
}

func TestVector2(t *testing.T) {
	if n := Normalize2f([2]float32{0, 0}); n != [2]float32{0, 0} {
		t.Errorf("normalizing zero vector gave %v", n)
	}
	if n := Normalize2f([2]float32{3, 4}); Abs(Length2f(n)-1) > 1e-6 {
		t.Errorf("normalized length %f", Length2f(n))
	}
	if p := Perp([2]float32{1, 0}); p != [2]float32{0, 1} {
		t.Errorf("Perp(+x) = %v, expected [0 1]", p)
	}
	if d := Dot([2]float32{1, 2}, Perp([2]float32{1, 2})); d != 0 {
		t.Errorf("vector not orthogonal to its perpendicular: %f", d)
	}
}

func TestSmoothstep(t *testing.T) {
	for _, tc := range []struct {
		e0, e1, x, expected float32
	}{
		{0, 1, -1, 0},
		{0, 1, 0, 0},
		{0, 1, 0.5, 0.5},
		{0, 1, 1, 1},
		{0, 1, 2, 1},
		{0.9, 1.1, 0, 0},
		{0.9, 1.1, 1, 0.5},
		{1, 1, 0.5, 0},
		{1, 1, 1.5, 1},
	} {
		if v := Smoothstep(tc.e0, tc.e1, tc.x); Abs(v-tc.expected) > 1e-6 {
			t.Errorf("Smoothstep(%f, %f, %f) = %f, expected %f", tc.e0, tc.e1, tc.x, v, tc.expected)
		}
	}
}

func TestLog2Int(t *testing.T) {
	for _, tc := range []struct{ v, l int }{{0, 0}, {1, 0}, {2, 1}, {3, 1}, {4, 2}, {1023, 9}, {1024, 10}} {
		if l := Log2Int(tc.v); l != tc.l {
			t.Errorf("Log2Int(%d) = %d, expected %d", tc.v, l, tc.l)
		}
	}
}

func TestExtent2D(t *testing.T) {
	e := Extent2DFromPoints([][2]float32{{1, 5}, {-2, 3}, {4, -1}})
	if e.P0 != [2]float32{-2, -1} || e.P1 != [2]float32{4, 5} {
		t.Errorf("extent %v", e)
	}
	if e.Width() != 6 || e.Height() != 6 {
		t.Errorf("size %f x %f, expected 6 x 6", e.Width(), e.Height())
	}
	if c := e.Lerp([2]float32{0.5, 0.5}); c != e.Center() {
		t.Errorf("Lerp(0.5) = %v, center %v", c, e.Center())
	}
	if !e.Inside([2]float32{0, 0}) || e.Inside([2]float32{5, 0}) {
		t.Errorf("Inside gave unexpected result")
	}
}
