package engine

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// QueueSnapshot is one point of a zone's queue-length time series.
type QueueSnapshot struct {
	FrameIndex   int64   `json:"frame_index"`
	TimestampSec float64 `json:"timestamp_sec"`
	ZoneID       int     `json:"zone_id"`
	Count        int     `json:"count"`
}

// Aggregator accumulates queue-length snapshots per zone and computes the
// final wait and queue statistics from the ledger's closed intervals. Like
// the Ledger it is owned by one Session and never shared.
type Aggregator struct {
	clock     FrameClock
	minWait   float64
	stride    int64
	processed int64
	series    map[int][]QueueSnapshot
}

// NewAggregator returns an aggregator snapshotting every stride-th
// processed frame. minWait is the dwell, in seconds, below which an
// interval counts as a walk-through rather than a measured wait.
func NewAggregator(clock FrameClock, minWait float64, stride int64) *Aggregator {
	if stride < 1 {
		stride = 1
	}
	return &Aggregator{
		clock:   clock,
		minWait: minWait,
		stride:  stride,
		series:  make(map[int][]QueueSnapshot),
	}
}

// ObserveFrame records one processed frame's per-zone occupancy counts.
// The first frame is always snapshotted; after that every stride-th one.
// counts must cover every zone, including empty ones, so the per-zone
// series stay parallel.
func (a *Aggregator) ObserveFrame(frame int64, counts map[int]int) {
	a.processed++
	if (a.processed-1)%a.stride != 0 {
		return
	}
	ts := a.clock.Seconds(frame)
	for zoneID, count := range counts {
		a.series[zoneID] = append(a.series[zoneID], QueueSnapshot{
			FrameIndex:   frame,
			TimestampSec: ts,
			ZoneID:       zoneID,
			Count:        count,
		})
	}
}

// Series returns a zone's snapshots in append order. The slice is the
// aggregator's own; callers must not modify it.
func (a *Aggregator) Series(zoneID int) []QueueSnapshot {
	return a.series[zoneID]
}

// Wait returns an interval's dwell in seconds.
func (a *Aggregator) Wait(iv Interval) float64 {
	return a.clock.Seconds(iv.ExitFrame) - a.clock.Seconds(iv.EnterFrame)
}

// Measured reports whether an interval's dwell passes the minimum-wait
// filter.
func (a *Aggregator) Measured(iv Interval) bool {
	return a.Wait(iv) >= a.minWait
}

// ZoneMetrics computes the final summary for one zone from its closed
// intervals and tracked-identity count.
func (a *Aggregator) ZoneMetrics(zoneID int, closed []Interval, tracked int) ZoneMetrics {
	m := ZoneMetrics{
		TotalPeopleTracked: tracked,
		WaitTimesSec:       []float64{},
		QueueTimestamps:    []float64{},
		QueueLengths:       []int{},
	}

	// An identity may close several measured intervals (leave and rejoin);
	// each dwell goes in WaitTimesSec but the person is measured once, so
	// NumPeopleMeasured can never exceed TotalPeopleTracked.
	measuredIDs := make(map[int64]struct{})
	for _, iv := range closed {
		if w := a.Wait(iv); w >= a.minWait {
			m.WaitTimesSec = append(m.WaitTimesSec, w)
			measuredIDs[iv.Identity] = struct{}{}
		}
	}
	m.NumPeopleMeasured = len(measuredIDs)

	if len(m.WaitTimesSec) > 0 {
		avg := stat.Mean(m.WaitTimesSec, nil)
		m.AvgWaitSec = &avg

		sorted := append([]float64(nil), m.WaitTimesSec...)
		sort.Float64s(sorted)
		minW, maxW := sorted[0], sorted[len(sorted)-1]
		p50 := stat.Quantile(0.5, stat.Empirical, sorted, nil)
		p90 := stat.Quantile(0.9, stat.Empirical, sorted, nil)
		m.MinWaitSec = &minW
		m.MaxWaitSec = &maxW
		m.P50WaitSec = &p50
		m.P90WaitSec = &p90
	}

	snaps := a.series[zoneID]
	if len(snaps) > 0 {
		lengths := make([]float64, len(snaps))
		for i, s := range snaps {
			m.QueueTimestamps = append(m.QueueTimestamps, s.TimestampSec)
			m.QueueLengths = append(m.QueueLengths, s.Count)
			lengths[i] = float64(s.Count)
			if s.Count > m.MaxQueueLen {
				m.MaxQueueLen = s.Count
			}
		}
		m.AvgQueueLen = stat.Mean(lengths, nil)
	}

	return m
}
