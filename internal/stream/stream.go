// Package stream adapts the frame-at-a-time engine to a live producer:
// frames arrive asynchronously on a bounded queue and a single consumer
// goroutine drives the session, so the engine's sequential-processing
// contract holds while the producer runs at its own pace.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/monitoring"
)

// ErrStopped is returned by Push once the consumer has exited.
var ErrStopped = errors.New("stream session stopped")

// Policy selects the backpressure behaviour when the queue is full.
type Policy int

const (
	// Block makes Push wait for queue space (or context cancellation).
	Block Policy = iota
	// DropOldest evicts the oldest queued frame to admit the new one.
	// Dwell continuity across the gap is covered by the grace window.
	DropOldest
)

// Config bounds the queue between producer and consumer.
type Config struct {
	Buffer int // queue capacity; default 64
	Policy Policy
}

// Session wraps one engine session with a bounded frame queue. Start the
// consumer with Run (usually in its own goroutine), feed frames with Push,
// and end with Stop.
type Session struct {
	sess   *engine.Session
	frames chan detect.Frame
	policy Policy

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	dropped atomic.Int64

	mu      sync.Mutex
	feedErr error
}

// New wraps sess. The wrapped session must not be fed directly once the
// stream owns it.
func New(sess *engine.Session, cfg Config) *Session {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	return &Session{
		sess:   sess,
		frames: make(chan detect.Frame, cfg.Buffer),
		policy: cfg.Policy,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// ID returns the underlying session id.
func (s *Session) ID() string { return s.sess.ID() }

// Dropped returns the number of frames evicted under the DropOldest policy.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Push queues one frame. Under Block it waits for space; under DropOldest
// it evicts the oldest queued frame instead. Push never blocks past ctx.
func (s *Session) Push(ctx context.Context, frame detect.Frame) error {
	for {
		select {
		case <-s.done:
			return fmt.Errorf("push %s: %w", s.sess.ID(), ErrStopped)
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		select {
		case s.frames <- frame:
			return nil
		default:
		}

		if s.policy == Block {
			select {
			case s.frames <- frame:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-s.done:
				return fmt.Errorf("push %s: %w", s.sess.ID(), ErrStopped)
			}
		}

		// DropOldest: make room and retry. The receive can lose the race
		// against the consumer, hence the loop.
		select {
		case <-s.frames:
			s.dropped.Add(1)
		default:
		}
	}
}

// Run consumes frames until Stop is called or ctx is cancelled. On
// cancellation the session is aborted; partial results are gone by choice.
// A feed error (out-of-order frame) stops consumption and is returned
// again by Stop.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.sess.Abort()
			return ctx.Err()
		case <-s.stop:
			// Drain what the producer already queued, then leave
			// finalize/abort to Stop.
			for {
				select {
				case f := <-s.frames:
					if err := s.feed(f); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		case f := <-s.frames:
			if err := s.feed(f); err != nil {
				return err
			}
		}
	}
}

func (s *Session) feed(f detect.Frame) error {
	if err := s.sess.Feed(f); err != nil {
		s.mu.Lock()
		s.feedErr = err
		s.mu.Unlock()
		monitoring.Logf("stream %s: feed: %v", s.sess.ID(), err)
		return err
	}
	return nil
}

// Stop ends consumption and waits for the consumer to drain the queue.
// With finalize it returns the completed result; without, the session is
// aborted and both return values are nil. Stop is safe to call once Run
// has been started.
func (s *Session) Stop(finalize bool) (*engine.AnalysisResult, error) {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done

	s.mu.Lock()
	feedErr := s.feedErr
	s.mu.Unlock()
	if feedErr != nil {
		return nil, feedErr
	}

	if !finalize {
		s.sess.Abort()
		return nil, nil
	}
	return s.sess.Finalize()
}

// Stats reports the mid-stream per-zone summary. Safe to call at any time.
func (s *Session) Stats() engine.LiveStats {
	return s.sess.Stats()
}
