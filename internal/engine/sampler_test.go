package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waitline/waitline/internal/detect"
)

type stubAnnotator struct {
	fail  bool
	calls int
}

func (a *stubAnnotator) Annotate(frameIndex int64, _ []detect.Detection) ([]byte, error) {
	a.calls++
	if a.fail {
		return nil, errors.New("render failed")
	}
	return []byte(fmt.Sprintf("png-%d", frameIndex)), nil
}

func TestSamplerStrideAndEviction(t *testing.T) {
	t.Parallel()

	ann := &stubAnnotator{}
	s := NewSampler(mustClock(t, 10), 2, 3, ann)

	for f := int64(0); f < 10; f++ {
		s.Observe(f, nil)
	}

	// Stride 2 keeps frames 0,2,4,6,8; cap 3 evicts the oldest two.
	samples := s.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, int64(4), samples[0].FrameIndex)
	assert.Equal(t, int64(8), samples[2].FrameIndex)
	assert.Equal(t, []byte("png-8"), samples[2].PNG)
	assert.Equal(t, 5, ann.calls)
}

func TestSamplerAnnotatorFailureKeepsSlot(t *testing.T) {
	t.Parallel()

	s := NewSampler(mustClock(t, 10), 1, 5, &stubAnnotator{fail: true})
	s.Observe(0, nil)

	samples := s.Samples()
	require.Len(t, samples, 1)
	assert.Empty(t, samples[0].PNG)
	assert.InDelta(t, 0.0, samples[0].TimestampSec, 1e-12)
}

func TestSamplerDisabled(t *testing.T) {
	t.Parallel()

	s := NewSampler(mustClock(t, 10), 1, 0, &stubAnnotator{})
	for f := int64(0); f < 5; f++ {
		s.Observe(f, nil)
	}
	assert.Empty(t, s.Samples())
}

func TestSamplerNilAnnotator(t *testing.T) {
	t.Parallel()

	s := NewSampler(mustClock(t, 10), 1, 2, nil)
	s.Observe(0, nil)

	samples := s.Samples()
	require.Len(t, samples, 1)
	assert.Empty(t, samples[0].PNG, "metadata-only sample")
}
