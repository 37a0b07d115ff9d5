package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waitline/waitline/internal/engine"
)

func sampleResult() *engine.AnalysisResult {
	avg, minW, maxW := 12.5, 3.0, 41.0
	return &engine.AnalysisResult{
		ID:          "ses_test",
		FPS:         15,
		FrameCount:  900,
		DurationSec: 60,
		Zones: []engine.ZoneResult{
			{
				ZoneID: 0,
				Name:   "register-queue",
				ZoneMetrics: engine.ZoneMetrics{
					AvgWaitSec:         &avg,
					MinWaitSec:         &minW,
					MaxWaitSec:         &maxW,
					AvgQueueLen:        2.4,
					MaxQueueLen:        5,
					NumPeopleMeasured:  9,
					TotalPeopleTracked: 14,
					WaitTimesSec:       []float64{3, 7.5, 12, 20, 41, 8, 9, 11, 4},
					QueueTimestamps:    []float64{0, 10, 20, 30, 40, 50},
					QueueLengths:       []int{0, 2, 5, 3, 2, 1},
				},
			},
			{
				ZoneID: 1,
				Name:   "pickup-counter",
				ZoneMetrics: engine.ZoneMetrics{
					WaitTimesSec:    []float64{},
					QueueTimestamps: []float64{0, 10, 20, 30, 40, 50},
					QueueLengths:    []int{0, 0, 1, 0, 0, 0},
				},
			},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(sampleResult(), &buf))

	html := buf.String()
	assert.Contains(t, html, "register-queue")
	assert.Contains(t, html, "pickup-counter")
	assert.Contains(t, html, "Queue length over time")
	assert.Contains(t, html, "Wait time distribution")
	assert.Contains(t, html, "echarts")
}

func TestRenderHTMLEmptyResult(t *testing.T) {
	t.Parallel()

	res := &engine.AnalysisResult{ID: "ses_empty", FPS: 10}
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(res, &buf))
	assert.NotZero(t, buf.Len())
}
