package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/httputil"
	"github.com/waitline/waitline/internal/monitoring"
	"github.com/waitline/waitline/internal/stream"
)

// createStreamRequest registers a live stream: the session fields plus the
// queue tuning. policy is "block" (default) or "drop_oldest".
type createStreamRequest struct {
	createSessionRequest
	Buffer int    `json:"buffer,omitempty"`
	Policy string `json:"policy,omitempty"`
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createStream(w, r)
	case http.MethodGet:
		s.listStreams(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) createStream(w http.ResponseWriter, r *http.Request) {
	var req createStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var policy stream.Policy
	switch req.Policy {
	case "", "block":
		policy = stream.Block
	case "drop_oldest":
		policy = stream.DropOldest
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown policy %q", req.Policy))
		return
	}

	sess, fps, zoneCount, status, err := s.buildEngineSession(req.createSessionRequest)
	if err != nil {
		httputil.WriteJSONError(w, status, err.Error())
		return
	}

	ss := stream.New(sess, stream.Config{Buffer: req.Buffer, Policy: policy})
	s.mu.Lock()
	s.streams[ss.ID()] = ss
	s.mu.Unlock()

	// The consumer outlives the request; Stop tears it down.
	go func() {
		if err := ss.Run(context.Background()); err != nil {
			monitoring.Logf("api: stream %s consumer: %v", ss.ID(), err)
		}
	}()
	monitoring.Logf("api: stream %s registered (%d zones, %.1f fps, policy %q)", ss.ID(), zoneCount, fps, req.Policy)

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"stream_id":  ss.ID(),
		"zone_count": zoneCount,
		"fps":        fps,
	})
}

func (s *Server) listStreams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	httputil.WriteJSONOK(w, map[string]interface{}{"streams": ids})
}

// handleStreamByID dispatches /api/streams/{id}/{action}.
func (s *Server) handleStreamByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/streams/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		httputil.BadRequest(w, "missing stream id")
		return
	}
	id := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	s.mu.Lock()
	ss, ok := s.streams[id]
	s.mu.Unlock()
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("unknown stream %q", id))
		return
	}

	switch action {
	case "frames":
		s.pushStream(w, r, ss)
	case "stats":
		s.streamStats(w, r, ss)
	case "stop":
		s.stopStream(w, r, ss)
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown action %q", action))
	}
}

func (s *Server) pushStream(w http.ResponseWriter, r *http.Request, ss *stream.Session) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	for _, frame := range req.Frames {
		if err := ss.Push(r.Context(), frame); err != nil {
			if errors.Is(err, stream.ErrStopped) {
				// The consumer is gone; the stop handler reports why.
				httputil.WriteJSONError(w, http.StatusConflict, err.Error())
				return
			}
			httputil.InternalServerError(w, err.Error())
			return
		}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"queued": len(req.Frames)})
}

func (s *Server) streamStats(w http.ResponseWriter, r *http.Request, ss *stream.Session) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, ss.Stats())
}

// stopStream drains and ends the stream. With finalize=false the session
// is aborted; otherwise the completed result is persisted and returned.
func (s *Server) stopStream(w http.ResponseWriter, r *http.Request, ss *stream.Session) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	finalize := r.URL.Query().Get("finalize") != "false"

	res, err := ss.Stop(finalize)
	s.removeStream(ss.ID())
	if err != nil {
		if errors.Is(err, engine.ErrOutOfOrderFrame) {
			httputil.WriteJSONError(w, http.StatusConflict, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	if !finalize {
		httputil.WriteJSONOK(w, map[string]interface{}{
			"status":  "aborted",
			"dropped": ss.Dropped(),
		})
		return
	}

	if s.store != nil {
		if err := s.store.SaveResult(res); err != nil {
			// The caller still gets the result; persistence failed.
			monitoring.Logf("api: save stream result %s: %v", res.ID, err)
		}
	}
	httputil.WriteJSONOK(w, res)
}

func (s *Server) removeStream(id string) {
	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()
}
