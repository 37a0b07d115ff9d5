// Package testutil provides shared fixtures for queue-analytics tests:
// canned zones, registries, and detection frames.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/geom"
	"github.com/waitline/waitline/internal/zones"
)

// SquareZone returns an axis-aligned square zone with corners (x, y) and
// (x+size, y+size).
func SquareZone(id int, name string, x, y, size float64) zones.Zone {
	return zones.Zone{ID: id, Name: name, Polygon: geom.Polygon{
		{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size},
	}}
}

// Registry builds a registry from the given zones, failing the test on
// invalid input.
func Registry(t *testing.T, zs ...zones.Zone) *zones.Registry {
	t.Helper()
	reg, err := zones.NewRegistry(zs)
	require.NoError(t, err)
	return reg
}

// PersonAt returns a 10x10 detection whose centroid is (x, y).
func PersonAt(id int64, x, y float64) detect.Detection {
	return detect.Detection{
		TrackID: id,
		Box:     geom.Rect{X1: x - 5, Y1: y - 5, X2: x + 5, Y2: y + 5},
		Score:   0.9,
	}
}

// Frame bundles detections under a frame index.
func Frame(idx int64, dets ...detect.Detection) detect.Frame {
	return detect.Frame{Index: idx, Detections: dets}
}
