package engine

import "errors"

// ErrOutOfOrderFrame is returned by Session.Feed when a frame index is lower
// than one already processed. Interval closure at frame N+1 depends on the
// state left by frame N, so out-of-order input makes every later statistic
// untrustworthy; the session is aborted and cannot be finalized.
var ErrOutOfOrderFrame = errors.New("frame index out of order")

// ErrSessionClosed is returned when feeding or finalizing a session that has
// already been finalized or aborted.
var ErrSessionClosed = errors.New("session already finalized or aborted")
