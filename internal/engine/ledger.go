package engine

import "sort"

// Interval is one completed stay of an identity inside a zone. ExitFrame is
// the last frame at which the identity was confirmed inside, so
// ExitFrame > EnterFrame always holds for a closed interval.
type Interval struct {
	Identity   int64 `json:"identity"`
	ZoneID     int   `json:"zone_id"`
	EnterFrame int64 `json:"enter_frame"`
	ExitFrame  int64 `json:"exit_frame"`
}

// Frames returns the interval length in frames.
func (iv Interval) Frames() int64 { return iv.ExitFrame - iv.EnterFrame }

// openStay is the PRESENT half of the per-(identity, zone) state machine.
// ABSENT pairs have no record at all, so the ledger's memory is proportional
// to the number of identities currently inside zones plus the identities
// ever seen, never to the stream length.
type openStay struct {
	enterFrame int64
	lastInside int64 // last frame confirmed inside the zone
}

// Ledger tracks per-(identity, zone) presence across frames and accumulates
// closed dwell intervals. It is owned by exactly one Session and is not safe
// for concurrent use.
type Ledger struct {
	grace  int64
	open   map[int]map[int64]*openStay // zone id -> identity -> open stay
	seen   map[int]map[int64]struct{}  // zone id -> identities ever confirmed inside
	closed []Interval
}

// NewLedger returns an empty ledger. grace is the number of consecutive
// frames an identity may go completely unobserved before its open stays
// close; an identity observed outside a zone closes that zone's stay
// immediately, grace applies only to full detector dropout.
func NewLedger(grace int64) *Ledger {
	return &Ledger{
		grace: grace,
		open:  make(map[int]map[int64]*openStay),
		seen:  make(map[int]map[int64]struct{}),
	}
}

// Advance processes one frame. inside maps zone id to the set of identities
// whose representative point falls in that zone this frame; observed is the
// set of all identities detected anywhere in the frame (superset of every
// inside set). Frames must be presented in non-decreasing order; the Session
// enforces that before calling here.
func (l *Ledger) Advance(frame int64, inside map[int]map[int64]bool, observed map[int64]bool) {
	// Entries and refreshes.
	for zoneID, ids := range inside {
		for id := range ids {
			l.markInside(zoneID, id, frame)
		}
	}

	// Exits. An identity observed this frame but outside a zone ends that
	// zone's stay at its last confirmed frame. An unobserved identity keeps
	// its stays open until the grace window is exhausted.
	for zoneID, stays := range l.open {
		var closing []int64
		for id, stay := range stays {
			if inside[zoneID][id] {
				continue
			}
			if observed[id] || frame-stay.lastInside > l.grace {
				closing = append(closing, id)
			}
		}
		// Map iteration order is random; close in sorted order so the
		// closed-interval sequence is deterministic.
		sort.Slice(closing, func(i, j int) bool { return closing[i] < closing[j] })
		for _, id := range closing {
			l.close(zoneID, id)
		}
	}
}

// CloseAll force-closes every open stay, as at end of stream. Closure order
// is sorted by zone then identity for determinism.
func (l *Ledger) CloseAll() {
	zoneIDs := make([]int, 0, len(l.open))
	for zoneID := range l.open {
		zoneIDs = append(zoneIDs, zoneID)
	}
	sort.Ints(zoneIDs)
	for _, zoneID := range zoneIDs {
		ids := make([]int64, 0, len(l.open[zoneID]))
		for id := range l.open[zoneID] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			l.close(zoneID, id)
		}
	}
}

// CountPresent returns the number of identities confirmed inside the zone at
// the given frame. Stays held open only by the grace window do not count: a
// person the detector cannot see is not standing in the queue as far as the
// length series is concerned.
func (l *Ledger) CountPresent(zoneID int, frame int64) int {
	n := 0
	for _, stay := range l.open[zoneID] {
		if stay.lastInside == frame {
			n++
		}
	}
	return n
}

// OpenStays returns the in-progress stays for a zone as intervals whose
// ExitFrame is the last confirmed-inside frame, sorted by identity. Used for
// mid-stream statistics; the stays remain open.
func (l *Ledger) OpenStays(zoneID int) []Interval {
	stays := l.open[zoneID]
	if len(stays) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(stays))
	for id, stay := range stays {
		out = append(out, Interval{
			Identity:   id,
			ZoneID:     zoneID,
			EnterFrame: stay.enterFrame,
			ExitFrame:  stay.lastInside,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Closed returns all closed intervals in closure order. The slice is the
// ledger's own; callers must not modify it.
func (l *Ledger) Closed() []Interval { return l.closed }

// ClosedForZone returns the closed intervals of one zone in closure order.
func (l *Ledger) ClosedForZone(zoneID int) []Interval {
	var out []Interval
	for _, iv := range l.closed {
		if iv.ZoneID == zoneID {
			out = append(out, iv)
		}
	}
	return out
}

// TrackedCount returns the number of distinct identities ever confirmed
// inside the zone, including walk-throughs too short to yield an interval.
func (l *Ledger) TrackedCount(zoneID int) int {
	return len(l.seen[zoneID])
}

func (l *Ledger) markInside(zoneID int, id int64, frame int64) {
	stays := l.open[zoneID]
	if stays == nil {
		stays = make(map[int64]*openStay)
		l.open[zoneID] = stays
	}
	if stay, ok := stays[id]; ok {
		stay.lastInside = frame
	} else {
		stays[id] = &openStay{enterFrame: frame, lastInside: frame}
	}

	seen := l.seen[zoneID]
	if seen == nil {
		seen = make(map[int64]struct{})
		l.seen[zoneID] = seen
	}
	seen[id] = struct{}{}
}

// close ends the open stay for (zoneID, id). A stay whose only confirmed
// frame is its entry frame has zero length and is dropped; the identity
// still counts as tracked.
func (l *Ledger) close(zoneID int, id int64) {
	stay, ok := l.open[zoneID][id]
	if !ok {
		return
	}
	delete(l.open[zoneID], id)
	if stay.lastInside > stay.enterFrame {
		l.closed = append(l.closed, Interval{
			Identity:   id,
			ZoneID:     zoneID,
			EnterFrame: stay.enterFrame,
			ExitFrame:  stay.lastInside,
		})
	}
}
