package engine

import (
	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/monitoring"
)

// Annotator renders one frame's detections over the session's zone
// geometry, returning an encoded image. Implemented by internal/render;
// injected so the engine core stays free of drawing dependencies.
type Annotator interface {
	Annotate(frameIndex int64, detections []detect.Detection) ([]byte, error)
}

// Sampler retains a bounded set of annotated frames for human review. It
// has no effect on metrics. Retention is deterministic: every stride-th
// processed frame is kept, and the oldest sample is evicted once the cap is
// reached.
type Sampler struct {
	clock     FrameClock
	stride    int64
	max       int
	annotator Annotator
	processed int64
	samples   []SampleFrame
}

// NewSampler returns a sampler keeping at most max frames, one every
// stride processed frames. A nil annotator keeps frame metadata without
// images; max zero disables sampling entirely.
func NewSampler(clock FrameClock, stride int64, max int, annotator Annotator) *Sampler {
	if stride < 1 {
		stride = 1
	}
	return &Sampler{
		clock:     clock,
		stride:    stride,
		max:       max,
		annotator: annotator,
	}
}

// Observe considers one processed frame for retention.
func (s *Sampler) Observe(frame int64, detections []detect.Detection) {
	s.processed++
	if s.max == 0 || (s.processed-1)%s.stride != 0 {
		return
	}

	sample := SampleFrame{
		FrameIndex:   frame,
		TimestampSec: s.clock.Seconds(frame),
	}
	if s.annotator != nil {
		png, err := s.annotator.Annotate(frame, detections)
		if err != nil {
			// A failed rendering loses the picture, not the sample slot.
			monitoring.Logf("sampler: annotate frame %d: %v", frame, err)
		} else {
			sample.PNG = png
		}
	}

	if len(s.samples) >= s.max {
		s.samples = s.samples[1:]
	}
	s.samples = append(s.samples, sample)
}

// Samples returns the retained frames, oldest first. The slice is a copy;
// the PNG payloads are shared.
func (s *Sampler) Samples() []SampleFrame {
	out := make([]SampleFrame, len(s.samples))
	copy(out, s.samples)
	return out
}
