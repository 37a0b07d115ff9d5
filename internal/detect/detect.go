// Package detect defines the detection input types fed into an analysis
// session. Detections come from an external tracking detector; this package
// only validates and represents them, it never produces them.
package detect

import (
	"github.com/waitline/waitline/internal/geom"
)

// Detection is one tracked person in one frame. TrackID is the stable
// identity assigned by the upstream tracker; the engine trusts it and never
// attempts re-identification. Score is the detector confidence in [0,1];
// producers that do not report confidence leave it zero and disable the
// confidence filter in the session config.
type Detection struct {
	TrackID int64     `json:"track_id"`
	Box     geom.Rect `json:"box"`
	Score   float64   `json:"confidence,omitempty"`
}

// Point returns the representative point used for zone membership: the
// centroid of the bounding box.
func (d Detection) Point() geom.Point {
	return d.Box.Center()
}

// Valid reports whether the detection is usable: a finite positive-area box
// and a non-negative track id. Invalid detections are skipped individually;
// they never fail the frame.
func (d Detection) Valid() bool {
	return d.TrackID >= 0 && d.Box.Valid()
}

// Frame is one frame's worth of detections with its position in the video.
type Frame struct {
	Index      int64       `json:"frame_index"`
	Detections []Detection `json:"detections"`
}

// Sanitize returns the subset of usable detections, preserving order. When
// minScore > 0, detections below it are dropped as well. The input slice is
// not modified.
func (f Frame) Sanitize(minScore float64) []Detection {
	out := make([]Detection, 0, len(f.Detections))
	for _, d := range f.Detections {
		if !d.Valid() {
			continue
		}
		if minScore > 0 && d.Score > 0 && d.Score < minScore {
			continue
		}
		out = append(out, d)
	}
	return out
}
