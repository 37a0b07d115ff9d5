package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func unitSquare() Polygon {
	return Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
}

func TestPolygonContains(t *testing.T) {
	t.Parallel()

	square := unitSquare()

	tests := []struct {
		name string
		pt   Point
		want bool
	}{
		{"interior", Point{5, 5}, true},
		{"outside right", Point{15, 5}, false},
		{"outside above", Point{5, -1}, false},
		{"on edge", Point{10, 5}, true},
		{"on vertex", Point{0, 0}, true},
		{"on bottom edge", Point{5, 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, square.Contains(tt.pt), "point %+v", tt.pt)
		})
	}
}

func TestPolygonContainsConcave(t *testing.T) {
	t.Parallel()

	// L-shape: the notch in the upper right is outside.
	l := Polygon{{0, 0}, {10, 0}, {10, 4}, {4, 4}, {4, 10}, {0, 10}}

	assert.True(t, l.Contains(Point{2, 8}))
	assert.True(t, l.Contains(Point{8, 2}))
	assert.False(t, l.Contains(Point{8, 8}))
}

func TestPolygonContainsDegenerate(t *testing.T) {
	t.Parallel()

	assert.False(t, Polygon{}.Contains(Point{0, 0}))
	assert.False(t, Polygon{{0, 0}, {1, 1}}.Contains(Point{0.5, 0.5}))
}

func TestPolygonCentroid(t *testing.T) {
	t.Parallel()

	c := unitSquare().Centroid()
	assert.Equal(t, Point{5, 5}, c)
}

func TestPolygonBounds(t *testing.T) {
	t.Parallel()

	tri := Polygon{{2, 3}, {8, 1}, {5, 9}}
	assert.Equal(t, Rect{X1: 2, Y1: 1, X2: 8, Y2: 9}, tri.Bounds())
}
