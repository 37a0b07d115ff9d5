package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/monitoring"
	"github.com/waitline/waitline/internal/timeutil"
	"github.com/waitline/waitline/internal/zones"
)

// wallClock stamps new sessions; tests may substitute a MockClock.
var wallClock timeutil.Clock = timeutil.RealClock{}

type sessionState int

const (
	stateActive sessionState = iota
	stateFinalized
	stateAborted
)

// Session drives one analysis: it owns a Ledger, an Aggregator, and a
// Sampler, and feeds them one frame at a time. All methods are safe for
// concurrent use, but frames themselves are processed strictly
// sequentially under the session lock. Independent sessions share nothing.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	reg       *zones.Registry
	clock     FrameClock
	cfg       *config.AnalysisConfig

	ledger  *Ledger
	agg     *Aggregator
	sampler *Sampler

	state     sessionState
	lastFrame int64
	frames    int64
	skipped   int64
}

// NewSession validates the configuration and returns a ready session.
// annotator may be nil; sample frames then carry metadata only.
func NewSession(reg *zones.Registry, fps float64, cfg *config.AnalysisConfig, annotator Annotator) (*Session, error) {
	clock, err := NewFrameClock(fps)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		id:        "ses_" + uuid.New().String(),
		createdAt: wallClock.Now().UTC(),
		reg:       reg,
		clock:     clock,
		cfg:       cfg,
		ledger:    NewLedger(cfg.GetGraceWindowFrames()),
		agg:       NewAggregator(clock, cfg.GetMinWaitSecFilter(), cfg.GetSnapshotStride()),
		sampler:   NewSampler(clock, cfg.GetSampleStride(), cfg.GetMaxSampleFrames(), annotator),
		lastFrame: -1,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// FPS returns the session's frame rate.
func (s *Session) FPS() float64 { return s.clock.FPS() }

// Active reports whether the session still accepts frames.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive
}

// Feed processes one frame. Frames must arrive in non-decreasing index
// order; a regression returns ErrOutOfOrderFrame and leaves the session
// aborted. Malformed detections are skipped individually.
func (s *Session) Feed(frame detect.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return fmt.Errorf("feed %s: %w", s.id, ErrSessionClosed)
	}
	if frame.Index < 0 || frame.Index < s.lastFrame {
		s.abortLocked()
		return fmt.Errorf("feed %s: frame %d after frame %d: %w",
			s.id, frame.Index, s.lastFrame, ErrOutOfOrderFrame)
	}

	kept := frame.Sanitize(s.cfg.GetMinConfidence())
	if n := len(frame.Detections) - len(kept); n > 0 {
		s.skipped += int64(n)
		monitoring.Logf("session %s: frame %d: skipped %d malformed or low-confidence detections", s.id, frame.Index, n)
	}

	observed := make(map[int64]bool, len(kept))
	inside := make(map[int]map[int64]bool)
	for _, d := range kept {
		observed[d.TrackID] = true
		for _, zoneID := range s.reg.ZonesFor(d.Point()) {
			set := inside[zoneID]
			if set == nil {
				set = make(map[int64]bool)
				inside[zoneID] = set
			}
			set[d.TrackID] = true
		}
	}

	s.ledger.Advance(frame.Index, inside, observed)

	counts := make(map[int]int, s.reg.Len())
	for _, zoneID := range s.reg.IDs() {
		counts[zoneID] = s.ledger.CountPresent(zoneID, frame.Index)
	}
	s.agg.ObserveFrame(frame.Index, counts)
	s.sampler.Observe(frame.Index, kept)

	s.lastFrame = frame.Index
	s.frames++
	return nil
}

// Finalize closes all open intervals and returns the complete result. The
// session stops accepting frames. Finalizing an aborted or already
// finalized session is an error; a session with zero frames fed returns a
// well-formed empty result.
func (s *Session) Finalize() (*AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateActive {
		return nil, fmt.Errorf("finalize %s: %w", s.id, ErrSessionClosed)
	}
	s.state = stateFinalized

	s.ledger.CloseAll()

	var frameCount int64
	if s.frames > 0 {
		frameCount = s.lastFrame + 1
	}

	res := &AnalysisResult{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		FPS:          s.clock.FPS(),
		FrameCount:   frameCount,
		DurationSec:  s.clock.Seconds(frameCount),
		Zones:        make([]ZoneResult, 0, s.reg.Len()),
		SampleFrames: s.sampler.Samples(),
	}
	for _, z := range s.reg.Zones() {
		res.Zones = append(res.Zones, ZoneResult{
			ZoneID:      z.ID,
			Name:        z.Name,
			ZoneMetrics: s.agg.ZoneMetrics(z.ID, s.ledger.ClosedForZone(z.ID), s.ledger.TrackedCount(z.ID)),
		})
	}

	if s.skipped > 0 {
		monitoring.Logf("session %s: finalized with %d detections skipped over %d frames", s.id, s.skipped, s.frames)
	}
	return res, nil
}

// Abort releases the session's buffers without computing metrics. Safe to
// call at any point and idempotent.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
}

func (s *Session) abortLocked() {
	if s.state == stateAborted {
		return
	}
	s.state = stateAborted
	// Drop the sample buffer; PNGs dominate the session's memory.
	s.sampler = NewSampler(s.clock, 1, 0, nil)
	s.ledger = NewLedger(0)
}

// Stats returns a mid-stream summary without disturbing session state.
func (s *Session) Stats() LiveStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls := LiveStats{
		SessionID:  s.id,
		FrameCount: s.frames,
		Zones:      make([]ZoneStats, 0, s.reg.Len()),
	}
	if s.frames > 0 {
		ls.ElapsedSec = s.clock.Seconds(s.lastFrame)
	}

	for _, z := range s.reg.Zones() {
		zs := ZoneStats{
			ZoneID:       z.ID,
			Name:         z.Name,
			CurrentCount: s.ledger.CountPresent(z.ID, s.lastFrame),
			TotalTracked: s.ledger.TrackedCount(z.ID),
		}

		// Running wait of everyone currently in the zone, open stays
		// included.
		var dwells []float64
		for _, stay := range s.ledger.OpenStays(z.ID) {
			dwells = append(dwells, s.agg.Wait(stay))
		}
		if len(dwells) > 0 {
			avg := stat.Mean(dwells, nil)
			zs.AvgWaitSoFar = &avg
		}

		measured := make(map[int64]struct{})
		for _, iv := range s.ledger.ClosedForZone(z.ID) {
			if s.agg.Measured(iv) {
				measured[iv.Identity] = struct{}{}
			}
		}
		zs.ClosedMeasured = len(measured)

		for _, snap := range s.agg.Series(z.ID) {
			if snap.Count > zs.MaxQueueLen {
				zs.MaxQueueLen = snap.Count
			}
		}
		ls.Zones = append(ls.Zones, zs)
	}
	return ls
}
