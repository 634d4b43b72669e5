// renderer/sdf.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	gomath "math"
)

const sdfInfinity = 1e20

// DistanceField converts a w x h coverage mask, where values >= 128 are
// inside, to a signed distance field. Distances are in pixels, clamped to
// +/- spread and encoded so that 255 is spread or more inside, 0 is
// spread or more outside, and the edge is at (very nearly) 128; this is
// the encoding the distance-field drawing mode expects.
func DistanceField(mask []byte, w, h int, spread float32) []byte {
	outside := make([]float64, w*h) // squared distance to the nearest inside pixel
	inside := make([]float64, w*h)  // squared distance to the nearest outside pixel
	for i, m := range mask[:w*h] {
		if m >= 128 {
			inside[i] = sdfInfinity
		} else {
			outside[i] = sdfInfinity
		}
	}
	squaredDistanceTransform(outside, w, h)
	squaredDistanceTransform(inside, w, h)

	sdf := make([]byte, w*h)
	for i := range sdf {
		d := gomath.Sqrt(outside[i]) - gomath.Sqrt(inside[i])
		v := 0.5 - d/(2*float64(spread))
		sdf[i] = byte(gomath.Round(255 * gomath.Max(0, gomath.Min(1, v))))
	}
	return sdf
}

// squaredDistanceTransform replaces each value in the w x h grid with the
// minimum over all cells q of the squared distance to q plus grid[q]; with
// grid set to 0 at feature cells and sdfInfinity elsewhere, this gives
// the squared distance to the nearest feature. It's separable, so it's
// done in 1D along columns and then rows.
func squaredDistanceTransform(grid []float64, w, h int) {
	n := max(w, h)
	f, d := make([]float64, n), make([]float64, n)
	z, v := make([]float64, n+1), make([]int, n)

	for x := range w {
		for y := range h {
			f[y] = grid[y*w+x]
		}
		edt1D(f[:h], d[:h], v, z)
		for y := range h {
			grid[y*w+x] = d[y]
		}
	}
	for y := range h {
		copy(f[:w], grid[y*w:(y+1)*w])
		edt1D(f[:w], d[:w], v, z)
		copy(grid[y*w:(y+1)*w], d[:w])
	}
}

// edt1D computes the 1D squared distance transform of f into d by finding
// the lower envelope of the parabolas rooted at each sample (Felzenszwalb
// and Huttenlocher, "Distance Transforms of Sampled Functions"). v and z
// are scratch space for the envelope's parabolas and their boundaries.
func edt1D(f, d []float64, v []int, z []float64) {
	if len(f) == 0 {
		return
	}

	k := 0
	v[0] = 0
	z[0], z[1] = -sdfInfinity, sdfInfinity

	intersect := func(q, p int) float64 {
		return ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*q-2*p)
	}

	for q := 1; q < len(f); q++ {
		s := intersect(q, v[k])
		for s <= z[k] {
			k--
			s = intersect(q, v[k])
		}
		k++
		v[k] = q
		z[k], z[k+1] = s, sdfInfinity
	}

	k = 0
	for q := range f {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
