package engine

import "time"

// ZoneMetrics is the summary of one zone over a finished (or in-progress)
// analysis. Wait statistics are nil when no interval passed the minimum-wait
// filter; "no one queued here" is a valid outcome, not an error.
type ZoneMetrics struct {
	AvgWaitSec *float64 `json:"avg_wait_sec"`
	MinWaitSec *float64 `json:"min_wait_sec"`
	MaxWaitSec *float64 `json:"max_wait_sec"`
	P50WaitSec *float64 `json:"p50_wait_sec"`
	P90WaitSec *float64 `json:"p90_wait_sec"`

	AvgQueueLen float64 `json:"avg_queue_len"`
	MaxQueueLen int     `json:"max_queue_len"`

	// NumPeopleMeasured counts identities whose dwell passed the filter;
	// TotalPeopleTracked counts every distinct identity ever seen in the
	// zone. Measured never exceeds tracked.
	NumPeopleMeasured  int `json:"num_people_measured"`
	TotalPeopleTracked int `json:"total_people_tracked"`

	// WaitTimesSec lists each measured dwell, in interval-closure order.
	// QueueTimestamps and QueueLengths are parallel arrays sampled at the
	// snapshot stride. Both are kept raw for client-side histogramming.
	WaitTimesSec    []float64 `json:"wait_times"`
	QueueTimestamps []float64 `json:"queue_timestamps"`
	QueueLengths    []int     `json:"queue_lengths"`
}

// ZoneResult pairs a zone's identity with its metrics.
type ZoneResult struct {
	ZoneID int    `json:"zone_id"`
	Name   string `json:"name"`
	ZoneMetrics
}

// SampleFrame is one retained annotated frame. PNG is empty when the
// session ran without an annotator.
type SampleFrame struct {
	FrameIndex   int64   `json:"frame_index"`
	TimestampSec float64 `json:"timestamp_sec"`
	PNG          []byte  `json:"annotated_png,omitempty"`
}

// AnalysisResult is the complete output of one session: flat and
// JSON-serializable, with no references back into engine state.
type AnalysisResult struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	FPS         float64      `json:"fps"`
	FrameCount  int64        `json:"frame_count"`
	DurationSec float64      `json:"duration_sec"`
	Zones       []ZoneResult `json:"zones"`

	SampleFrames []SampleFrame `json:"sample_frames,omitempty"`
}

// ZoneStats is a mid-stream view of one zone, for live monitoring: who is
// in the zone right now and how long they have waited so far.
type ZoneStats struct {
	ZoneID         int      `json:"zone_id"`
	Name           string   `json:"name"`
	CurrentCount   int      `json:"current_count"`
	AvgWaitSoFar   *float64 `json:"avg_wait_so_far"`
	MaxQueueLen    int      `json:"max_queue_len"`
	TotalTracked   int      `json:"total_people_tracked"`
	ClosedMeasured int      `json:"num_people_measured"`
}

// LiveStats is the mid-stream counterpart of AnalysisResult.
type LiveStats struct {
	SessionID  string      `json:"session_id"`
	FrameCount int64       `json:"frame_count"`
	ElapsedSec float64     `json:"elapsed_sec"`
	Zones      []ZoneStats `json:"zones"`
}
