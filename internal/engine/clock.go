package engine

import (
	"fmt"
	"math"

	"github.com/waitline/waitline/internal/zones"
)

// FrameClock converts frame indices to elapsed seconds under a constant
// frame rate. Variable-rate sources must be resampled upstream.
type FrameClock struct {
	fps float64
}

// NewFrameClock returns a clock for the given frame rate. A zero, negative,
// or non-finite rate is a configuration error at session start; the clock
// never divides by an unvalidated rate.
func NewFrameClock(fps float64) (FrameClock, error) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return FrameClock{}, &zones.ConfigError{
			Field:  "fps",
			Reason: fmt.Sprintf("frame rate must be positive and finite, got %v", fps),
		}
	}
	return FrameClock{fps: fps}, nil
}

// FPS returns the clock's frame rate.
func (c FrameClock) FPS() float64 { return c.fps }

// Seconds returns the elapsed time at the given frame index.
func (c FrameClock) Seconds(frame int64) float64 {
	return float64(frame) / c.fps
}
