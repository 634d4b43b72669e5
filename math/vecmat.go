// math/vecmat.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "errors"

///////////////////////////////////////////////////////////////////////////
// point 2f

// Various useful functions for arithmetic with 2D points/vectors.
// Names are brief in order to avoid clutter when they're used.

// a+b
func Add2f(a [2]float32, b [2]float32) [2]float32 {
	return [2]float32{a[0] + b[0], a[1] + b[1]}
}

// a-b
func Sub2f(a [2]float32, b [2]float32) [2]float32 {
	return [2]float32{a[0] - b[0], a[1] - b[1]}
}

// a*s
func Scale2f(a [2]float32, s float32) [2]float32 {
	return [2]float32{s * a[0], s * a[1]}
}

// Component-wise a*b
func Mul2f(a [2]float32, b [2]float32) [2]float32 {
	return [2]float32{a[0] * b[0], a[1] * b[1]}
}

func Dot(a, b [2]float32) float32 {
	return a[0]*b[0] + a[1]*b[1]
}

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v [2]float32) [2]float32 {
	return [2]float32{-v[1], v[0]}
}

// Linearly interpolate x of the way between a and b. x==0 corresponds to
// a, x==1 corresponds to b, etc.
func Lerp2f(x float32, a [2]float32, b [2]float32) [2]float32 {
	return [2]float32{(1-x)*a[0] + x*b[0], (1-x)*a[1] + x*b[1]}
}

// Length of v
func Length2f(v [2]float32) float32 {
	return Sqrt(v[0]*v[0] + v[1]*v[1])
}

// Distance between two points
func Distance2f(a [2]float32, b [2]float32) float32 {
	return Length2f(Sub2f(a, b))
}

// Normalizes the given vector.
func Normalize2f(a [2]float32) [2]float32 {
	l := Length2f(a)
	if l == 0 {
		return [2]float32{0, 0}
	}
	return Scale2f(a, 1/l)
}

///////////////////////////////////////////////////////////////////////////
// 4x4 matrix

// ErrSingularMatrix is returned when inverting a matrix whose determinant
// is zero.
var ErrSingularMatrix = errors.New("matrix is singular")

// Matrix4 is a row-major 4x4 matrix that transforms column vectors; m[r][c]
// is the element in row r and column c.
type Matrix4 [4][4]float32

func MakeMatrix4(m00, m01, m02, m03, m10, m11, m12, m13, m20, m21, m22, m23, m30, m31, m32, m33 float32) Matrix4 {
	return [4][4]float32{
		[4]float32{m00, m01, m02, m03},
		[4]float32{m10, m11, m12, m13},
		[4]float32{m20, m21, m22, m23},
		[4]float32{m30, m31, m32, m33}}
}

func Identity4x4() Matrix4 {
	var m Matrix4
	m[0][0] = 1
	m[1][1] = 1
	m[2][2] = 1
	m[3][3] = 1
	return m
}

func (m Matrix4) PostMultiply(m2 Matrix4) Matrix4 {
	var result Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			result[i][j] = m[i][0]*m2[0][j] + m[i][1]*m2[1][j] + m[i][2]*m2[2][j] + m[i][3]*m2[3][j]
		}
	}
	return result
}

func (m Matrix4) Translate(x, y, z float32) Matrix4 {
	return m.PostMultiply(MakeMatrix4(
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1))
}

func (m Matrix4) Scale(x, y, z float32) Matrix4 {
	return m.PostMultiply(MakeMatrix4(
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1))
}

// Rotate applies a counter-clockwise rotation of theta radians about the z
// axis.
func (m Matrix4) Rotate(theta float32) Matrix4 {
	s, c := Sin(theta), Cos(theta)
	return m.PostMultiply(MakeMatrix4(
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1))
}

// Ortho returns m post-multiplied with an orthographic projection that maps
// the given box to [-1,1]^3.
func (m Matrix4) Ortho(left, right, bottom, top, near, far float32) Matrix4 {
	return m.PostMultiply(MakeMatrix4(
		2/(right-left), 0, 0, -(right+left)/(right-left),
		0, 2/(top-bottom), 0, -(top+bottom)/(top-bottom),
		0, 0, -2/(far-near), -(far+near)/(far-near),
		0, 0, 0, 1))
}

func (m Matrix4) Transpose() Matrix4 {
	var r Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

func (m Matrix4) Determinant() float32 {
	_, det := m.adjugate()
	return det
}

// Inverse returns the inverse of m, or ErrSingularMatrix if m has a zero
// determinant.
func (m Matrix4) Inverse() (Matrix4, error) {
	adj, det := m.adjugate()
	if det == 0 {
		return Matrix4{}, ErrSingularMatrix
	}
	inv := 1 / det
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			adj[i][j] *= inv
		}
	}
	return adj, nil
}

// adjugate returns the transposed cofactor matrix of m along with m's
// determinant.
func (m Matrix4) adjugate() (Matrix4, float32) {
	var a [16]float32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[4*i+j] = m[i][j]
		}
	}

	var r [16]float32
	r[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	r[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	r[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	r[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	r[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	r[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	r[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	r[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	r[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	r[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	r[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	r[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	r[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	r[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	r[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	r[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*r[0] + a[1]*r[4] + a[2]*r[8] + a[3]*r[12]

	var adj Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			adj[i][j] = r[4*i+j]
		}
	}
	return adj, det
}

// Transform4 returns m*v.
func (m Matrix4) Transform4(v [4]float32) [4]float32 {
	var r [4]float32
	for i := 0; i < 4; i++ {
		r[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2] + m[i][3]*v[3]
	}
	return r
}

// TransformPoint transforms p with an implicit w of 1; no perspective
// divide is performed.
func (m Matrix4) TransformPoint(p [3]float32) [3]float32 {
	r := m.Transform4([4]float32{p[0], p[1], p[2], 1})
	return [3]float32{r[0], r[1], r[2]}
}

func (m Matrix4) TransformPoint2(p [2]float32) [2]float32 {
	r := m.Transform4([4]float32{p[0], p[1], 0, 1})
	return [2]float32{r[0], r[1]}
}

// TransformVector2 transforms v as a direction (w = 0).
func (m Matrix4) TransformVector2(v [2]float32) [2]float32 {
	r := m.Transform4([4]float32{v[0], v[1], 0, 0})
	return [2]float32{r[0], r[1]}
}

// Equal reports whether all elements of m and m2 are within eps of each other.
func (m Matrix4) Equal(m2 Matrix4, eps float32) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if Abs(m[i][j]-m2[i][j]) > eps {
				return false
			}
		}
	}
	return true
}
