package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/testutil"
)

func newEngineSession(t *testing.T) *engine.Session {
	t.Helper()
	reg := testutil.Registry(t, testutil.SquareZone(0, "queue", 0, 0, 100))
	sess, err := engine.NewSession(reg, 10, config.EmptyAnalysisConfig(), nil)
	require.NoError(t, err)
	return sess
}

func personAt(id int64) detect.Detection {
	return testutil.PersonAt(id, 50, 50)
}

func TestStreamProcessesAndFinalizes(t *testing.T) {
	t.Parallel()

	ss := New(newEngineSession(t), Config{Buffer: 8})
	go func() { _ = ss.Run(context.Background()) }()

	ctx := context.Background()
	for f := int64(0); f <= 30; f++ {
		require.NoError(t, ss.Push(ctx, detect.Frame{Index: f, Detections: []detect.Detection{personAt(1)}}))
	}

	res, err := ss.Stop(true)
	require.NoError(t, err)
	require.Len(t, res.Zones, 1)
	assert.Equal(t, 1, res.Zones[0].TotalPeopleTracked)
	require.NotNil(t, res.Zones[0].AvgWaitSec)
	assert.InDelta(t, 3.0, *res.Zones[0].AvgWaitSec, 1e-12, "30 frames at 10 fps")
	assert.Zero(t, ss.Dropped())
}

func TestStreamStopWithoutFinalize(t *testing.T) {
	t.Parallel()

	ss := New(newEngineSession(t), Config{})
	go func() { _ = ss.Run(context.Background()) }()

	require.NoError(t, ss.Push(context.Background(), detect.Frame{Index: 0}))
	res, err := ss.Stop(false)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestStreamDropOldest(t *testing.T) {
	t.Parallel()

	// No consumer running yet: the tiny queue must overflow.
	ss := New(newEngineSession(t), Config{Buffer: 2, Policy: DropOldest})

	ctx := context.Background()
	for f := int64(0); f < 10; f++ {
		require.NoError(t, ss.Push(ctx, detect.Frame{Index: f}))
	}
	assert.GreaterOrEqual(t, ss.Dropped(), int64(8))

	go func() { _ = ss.Run(ctx) }()
	res, err := ss.Stop(true)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestStreamBlockRespectsContext(t *testing.T) {
	t.Parallel()

	// No consumer: a full queue under Block must fail via the context, not
	// hang.
	ss := New(newEngineSession(t), Config{Buffer: 1, Policy: Block})
	ctx := context.Background()
	require.NoError(t, ss.Push(ctx, detect.Frame{Index: 0}))

	timed, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := ss.Push(timed, detect.Frame{Index: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStreamCancelAborts(t *testing.T) {
	t.Parallel()

	ss := New(newEngineSession(t), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ss.Run(ctx) }()

	require.NoError(t, ss.Push(ctx, detect.Frame{Index: 0}))
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not exit on cancel")
	}

	_, err := ss.Stop(true)
	assert.ErrorIs(t, err, engine.ErrSessionClosed)
}

func TestStreamFeedErrorSurfacesOnStop(t *testing.T) {
	t.Parallel()

	ss := New(newEngineSession(t), Config{Buffer: 4})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ss.Run(context.Background())
	}()

	ctx := context.Background()
	require.NoError(t, ss.Push(ctx, detect.Frame{Index: 10}))
	require.NoError(t, ss.Push(ctx, detect.Frame{Index: 3})) // regression

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not exit on feed error")
	}

	_, err := ss.Stop(true)
	assert.ErrorIs(t, err, engine.ErrOutOfOrderFrame)
}

func TestStreamStats(t *testing.T) {
	t.Parallel()

	ss := New(newEngineSession(t), Config{})
	go func() { _ = ss.Run(context.Background()) }()

	ctx := context.Background()
	for f := int64(0); f <= 10; f++ {
		require.NoError(t, ss.Push(ctx, detect.Frame{Index: f, Detections: []detect.Detection{personAt(2)}}))
	}
	// Queue is drained by Stop below; stats before that may lag, which is
	// fine. After Stop the numbers are exact.
	_, err := ss.Stop(true)
	require.NoError(t, err)

	stats := ss.Stats()
	require.Len(t, stats.Zones, 1)
	assert.Equal(t, 1, stats.Zones[0].TotalTracked)
}
