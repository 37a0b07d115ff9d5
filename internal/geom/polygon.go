package geom

import "math"

// onSegmentEpsilon is the tolerance for treating a point as lying on a
// polygon edge. Detection coordinates are pixel-scale, so 1e-9 is far below
// any meaningful precision.
const onSegmentEpsilon = 1e-9

// Polygon is an ordered ring of vertices, implicitly closed (the last
// vertex connects back to the first). A ring needs at least three vertices
// to enclose area; validation happens where polygons enter the system, not
// here.
type Polygon []Point

// Contains reports whether pt lies inside the polygon using the standard
// even-odd ray-casting rule. Points exactly on an edge or vertex count as
// inside, matching the >= 0 convention of OpenCV's pointPolygonTest so
// counts are reproducible against the reference detector pipeline.
func (p Polygon) Contains(pt Point) bool {
	n := len(p)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[j], p[i]

		if onSegment(pt, a, b) {
			return true
		}

		// Edge crosses the horizontal ray through pt.
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Centroid returns the arithmetic mean of the vertices. Used for placing
// zone labels, not for membership, so the simple vertex mean is enough.
func (p Polygon) Centroid() Point {
	if len(p) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, v := range p {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(p))
	return Point{X: sx / n, Y: sy / n}
}

// Bounds returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	r := Rect{X1: p[0].X, Y1: p[0].Y, X2: p[0].X, Y2: p[0].Y}
	for _, v := range p[1:] {
		r.X1 = math.Min(r.X1, v.X)
		r.Y1 = math.Min(r.Y1, v.Y)
		r.X2 = math.Max(r.X2, v.X)
		r.Y2 = math.Max(r.Y2, v.Y)
	}
	return r
}

// onSegment reports whether pt lies on the segment a-b.
func onSegment(pt, a, b Point) bool {
	cross := (b.X-a.X)*(pt.Y-a.Y) - (b.Y-a.Y)*(pt.X-a.X)
	if math.Abs(cross) > onSegmentEpsilon*math.Max(1, math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))) {
		return false
	}
	if pt.X < math.Min(a.X, b.X)-onSegmentEpsilon || pt.X > math.Max(a.X, b.X)+onSegmentEpsilon {
		return false
	}
	if pt.Y < math.Min(a.Y, b.Y)-onSegmentEpsilon || pt.Y > math.Max(a.Y, b.Y)+onSegmentEpsilon {
		return false
	}
	return true
}
