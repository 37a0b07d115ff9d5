package detect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/waitline/waitline/internal/geom"
)

func TestDetectionPoint(t *testing.T) {
	t.Parallel()

	d := Detection{TrackID: 1, Box: geom.Rect{X1: 0, Y1: 0, X2: 10, Y2: 20}}
	assert.Equal(t, geom.Point{X: 5, Y: 10}, d.Point())
}

func TestDetectionValid(t *testing.T) {
	t.Parallel()

	good := geom.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}

	assert.True(t, Detection{TrackID: 0, Box: good}.Valid())
	assert.False(t, Detection{TrackID: -1, Box: good}.Valid(), "negative track id")
	assert.False(t, Detection{TrackID: 1, Box: geom.Rect{X1: 5, Y1: 5, X2: 5, Y2: 10}}.Valid(), "zero width")
	assert.False(t, Detection{TrackID: 1, Box: geom.Rect{X1: math.NaN()}}.Valid(), "nan box")
}

func TestFrameSanitize(t *testing.T) {
	t.Parallel()

	good := geom.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
	f := Frame{
		Index: 7,
		Detections: []Detection{
			{TrackID: 1, Box: good, Score: 0.9},
			{TrackID: -2, Box: good, Score: 0.9},                          // bad id
			{TrackID: 3, Box: geom.Rect{X1: 1, Y1: 1, X2: 1, Y2: 1}},      // degenerate box
			{TrackID: 4, Box: good, Score: 0.2},                           // below threshold
			{TrackID: 5, Box: good},                                       // no score reported, kept
		},
	}

	kept := f.Sanitize(0.4)
	ids := make([]int64, 0, len(kept))
	for _, d := range kept {
		ids = append(ids, d.TrackID)
	}
	assert.Equal(t, []int64{1, 5}, ids)

	// Threshold disabled: only structurally invalid detections drop.
	kept = f.Sanitize(0)
	assert.Len(t, kept, 3)
	assert.Len(t, f.Detections, 5, "input untouched")
}
