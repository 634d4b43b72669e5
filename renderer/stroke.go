// renderer/stroke.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"

	"github.com/lumen2d/lumen/math"
)

// minMiterSine bounds how far a joint is extended: at a joint where the
// polyline folds back on itself, the offset would otherwise go to
// infinity. It limits the miter to 4x the line width.
const minMiterSine = 0.25

// strokeNormal returns the unit normal of the segment from a to b.
func strokeNormal(a, b [3]float32) [2]float32 {
	return math.Perp(math.Normalize2f([2]float32{b[0] - a[0], b[1] - a[1]}))
}

// strokeMiter returns the direction in which the joint at p is offset: the
// average of the normals of the segments on either side of it.
func strokeMiter(prev, p, next [3]float32) [2]float32 {
	return math.Normalize2f(math.Add2f(strokeNormal(prev, p), strokeNormal(p, next)))
}

// strokeLines expands the buffered line vertices into triangles.
func (c *Context) strokeLines() {
	lv := c.lines
	n := len(lv)

	switch c.primitive {
	case PrimitiveLines:
		if n%2 != 0 {
			panic(fmt.Sprintf("End: lines require an even number of vertices; got %d", n))
		}
		for i := 0; i < n; i += 2 {
			nrm := strokeNormal(lv[i].pos, lv[i+1].pos)
			c.strokeSegment(lv[i], lv[i+1], nrm, nrm)
		}

	case PrimitiveLineStrip, PrimitiveLineLoop:
		if n < 3 {
			panic(fmt.Sprintf("End: %s requires at least 3 vertices; got %d", c.primitive, n))
		}

		miters := make([][2]float32, n)
		for i := 1; i < n-1; i++ {
			miters[i] = strokeMiter(lv[i-1].pos, lv[i].pos, lv[i+1].pos)
		}
		if c.primitive == PrimitiveLineStrip {
			miters[0] = strokeNormal(lv[0].pos, lv[1].pos)
			miters[n-1] = strokeNormal(lv[n-2].pos, lv[n-1].pos)
		} else {
			miters[0] = strokeMiter(lv[n-1].pos, lv[0].pos, lv[1].pos)
			miters[n-1] = strokeMiter(lv[n-2].pos, lv[n-1].pos, lv[0].pos)
		}

		for i := 0; i < n-1; i++ {
			c.strokeSegment(lv[i], lv[i+1], miters[i], miters[i+1])
		}
		if c.primitive == PrimitiveLineLoop {
			c.strokeSegment(lv[n-1], lv[0], miters[n-1], miters[0])
		}
	}
}

// strokeSegment emits the quad covering the segment from a to b, with its
// ends offset along na and nb respectively. Each offset is lengthened by
// the inverse sine of the angle between the offset and the segment so that
// the quad keeps the line width measured perpendicular to the segment.
func (c *Context) strokeSegment(a, b lineVertex, na, nb [2]float32) {
	dir := math.Normalize2f([2]float32{b.pos[0] - a.pos[0], b.pos[1] - a.pos[1]})

	offset := func(nrm [2]float32) [3]float32 {
		cos := math.Abs(math.Dot(dir, nrm))
		sin := math.Max(math.Sqrt(1-cos*cos), minMiterSine)
		l := c.lineWidth / sin
		return [3]float32{nrm[0] * l, nrm[1] * l, 0}
	}
	oa, ob := offset(na), offset(nb)

	add := func(p, o [3]float32) [3]float32 { return [3]float32{p[0] + o[0], p[1] + o[1], p[2] + o[2]} }
	sub := func(p, o [3]float32) [3]float32 { return [3]float32{p[0] - o[0], p[1] - o[1], p[2] - o[2]} }

	c.emit(add(a.pos, oa), [2]float32{0, 1}, a.color)
	c.emit(sub(a.pos, oa), [2]float32{0, 0}, a.color)
	c.emit(sub(b.pos, ob), [2]float32{1, 0}, b.color)

	c.emit(sub(b.pos, ob), [2]float32{1, 0}, b.color)
	c.emit(add(b.pos, ob), [2]float32{1, 1}, b.color)
	c.emit(add(a.pos, oa), [2]float32{0, 1}, a.color)
}
