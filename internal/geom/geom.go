// Package geom provides the 2D primitives used by the queue analytics
// engine: points, axis-aligned bounding boxes, and polygons with a
// ray-casting containment test.
//
// Coordinates are in image space (origin top-left, Y increasing downward),
// matching the pixel coordinates produced by upstream detectors. Nothing in
// this package depends on that orientation; it only matters to callers
// interpreting rendered output.
package geom

import "math"

// Point is a location in the 2D image plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box in corner form (x1,y1)-(x2,y2).
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the centroid of the box. This is the representative point
// used for zone membership throughout the engine; the bottom-centre
// footpoint would approximate ground position better for steep camera
// angles, but the centroid matches the counts produced by the deployed
// detector pipeline and must not be changed without re-baselining.
func (r Rect) Center() Point {
	return Point{
		X: (r.X1 + r.X2) / 2.0,
		Y: (r.Y1 + r.Y2) / 2.0,
	}
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent of the box.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Valid reports whether the box has positive area and finite coordinates.
// Detectors occasionally emit degenerate or NaN boxes on partial
// occlusions; those are skipped rather than failing the whole frame.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.X1, r.Y1, r.X2, r.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.X2 > r.X1 && r.Y2 > r.Y1
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
