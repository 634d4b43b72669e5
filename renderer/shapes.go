// renderer/shapes.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"

	"github.com/lumen2d/lumen/math"

	"github.com/mmp/earcut-go"
)

// DefaultArcSegments is used for arcs when a non-positive number of
// segments is given.
const DefaultArcSegments = 32

// Quad draws a size[0] x size[1] rectangle positioned relative to pos
// according to the current pivot.
func (c *Context) Quad(pos, size [2]float32) {
	c.QuadUV(pos, size, [2]float32{0, 0}, [2]float32{1, 1})
}

// QuadUV draws a rectangle like Quad, with the given texture coordinates
// at its lower-left and upper-right corners.
func (c *Context) QuadUV(pos, size, uvBL, uvTR [2]float32) {
	c.requireNoPrimitive("Quad")

	s := c.top()
	x0, y0 := pos[0]-s.Pivot[0]*size[0], pos[1]-s.Pivot[1]*size[1]
	x1, y1 := x0+size[0], y0+size[1]

	p := [4][3]float32{{x0, y0, 0}, {x1, y0, 0}, {x1, y1, 0}, {x0, y1, 0}}
	uv := [4][2]float32{{uvBL[0], uvBL[1]}, {uvTR[0], uvBL[1]}, {uvTR[0], uvTR[1]}, {uvBL[0], uvTR[1]}}

	c.primitive = PrimitiveTriangles
	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		c.emit(p[i], uv[i], s.Color)
	}
	c.primitive, c.primVertices = PrimitiveNone, 0
}

// Sprite draws the region of a texture given by sp.
func (c *Context) Sprite(sp Sprite, pos, size [2]float32) {
	c.Texture(sp.Texture)
	c.QuadUV(pos, size, sp.UVBottomLeft, sp.UVTopRight)
	c.NoTexture()
}

func arcSegments(n int) int {
	if n <= 0 {
		return DefaultArcSegments
	}
	return n
}

// FillArc draws the circular sector centered at pos between the given
// angles (in radians, counter-clockwise from the +x axis) as a fan of
// triangles.
func (c *Context) FillArc(pos [2]float32, radius, from, to float32, segments int) {
	c.requireNoPrimitive("FillArc")

	segments = arcSegments(segments)
	step := (to - from) / float32(segments)

	c.Begin(PrimitiveTriangles)
	for i := range segments {
		a := from + step*float32(i)
		c.Vertex(pos)
		c.Vertex(math.Add2f(pos, [2]float32{radius * math.Cos(a), radius * math.Sin(a)}))
		c.Vertex(math.Add2f(pos, [2]float32{radius * math.Cos(a+step), radius * math.Sin(a+step)}))
	}
	c.End()
}

func (c *Context) FillCircle(pos [2]float32, radius float32) {
	c.FillArc(pos, radius, 0, 2*math.Pi(), DefaultArcSegments)
}

// StrokeArc draws the arc centered at pos between the given angles as a
// stroked line strip of segments+1 points. At least two segments are
// always used.
func (c *Context) StrokeArc(pos [2]float32, radius, from, to float32, segments int) {
	c.requireNoPrimitive("StrokeArc")

	segments = max(2, arcSegments(segments))
	step := (to - from) / float32(segments)

	c.Begin(PrimitiveLineStrip)
	for i := range segments + 1 {
		a := from + step*float32(i)
		c.Vertex(math.Add2f(pos, [2]float32{radius * math.Cos(a), radius * math.Sin(a)}))
	}
	c.End()
}

// FillPolygon fills the simple polygon with the given vertices, which may
// be in either winding order. Texture coordinates map the polygon's
// bounding box to [0,1]^2.
func (c *Context) FillPolygon(pts [][2]float32) {
	c.requireNoPrimitive("FillPolygon")
	if len(pts) < 3 {
		panic(fmt.Sprintf("FillPolygon: polygons must have at least 3 vertices; got %d", len(pts)))
	}

	vertices := make([]earcut.Vertex, len(pts))
	for i, p := range pts {
		vertices[i].P = [2]float64{float64(p[0]), float64(p[1])}
	}
	tris := earcut.Triangulate(earcut.Polygon{Rings: [][]earcut.Vertex{vertices}})

	e := math.Extent2DFromPoints(pts)
	col := c.top().Color

	c.Begin(PrimitiveTriangles)
	for _, tri := range tris {
		for _, v := range tri.Vertices {
			p := [2]float32{float32(v.P[0]), float32(v.P[1])}
			var uv [2]float32
			if w := e.Width(); w > 0 {
				uv[0] = (p[0] - e.P0[0]) / w
			}
			if h := e.Height(); h > 0 {
				uv[1] = (p[1] - e.P0[1]) / h
			}
			c.emit([3]float32{p[0], p[1], 0}, uv, col)
		}
	}
	c.End()
}

// StrokePolygon draws the outline of the polygon with the given vertices.
func (c *Context) StrokePolygon(pts [][2]float32) {
	c.requireNoPrimitive("StrokePolygon")

	c.Begin(PrimitiveLineLoop)
	for _, p := range pts {
		c.Vertex(p)
	}
	c.End()
}
