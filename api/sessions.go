package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/httputil"
	"github.com/waitline/waitline/internal/monitoring"
	"github.com/waitline/waitline/internal/render"
	"github.com/waitline/waitline/internal/zones"
)

// createSessionRequest registers a new analysis session. Either camera_id
// (zones and fps come from the camera registry) or explicit zones plus fps
// must be given. frame_width/frame_height enable annotated sample frames.
type createSessionRequest struct {
	CameraID    string                 `json:"camera_id,omitempty"`
	FPS         float64                `json:"fps,omitempty"`
	Zones       []zones.Zone           `json:"zones,omitempty"`
	Config      *config.AnalysisConfig `json:"config,omitempty"`
	FrameWidth  float64                `json:"frame_width,omitempty"`
	FrameHeight float64                `json:"frame_height,omitempty"`
}

type feedRequest struct {
	Frames []detect.Frame `json:"frames"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSession(w, r)
	case http.MethodGet:
		s.listSessions(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// buildEngineSession resolves camera defaults and constructs the engine
// session behind both batch sessions and live streams. The int return is
// the HTTP status to report when err is non-nil.
func (s *Server) buildEngineSession(req createSessionRequest) (*engine.Session, float64, int, int, error) {
	zoneDefs := req.Zones
	fps := req.FPS
	if req.CameraID != "" {
		if s.cameras == nil {
			return nil, 0, 0, http.StatusBadRequest, fmt.Errorf("no camera registry configured")
		}
		cam, ok := s.cameras.Camera(req.CameraID)
		if !ok {
			return nil, 0, 0, http.StatusNotFound, fmt.Errorf("unknown camera %q", req.CameraID)
		}
		if len(zoneDefs) == 0 {
			zoneDefs = cam.Zones
		}
		if fps == 0 {
			fps = cam.FPS
		}
	}

	reg, err := zones.NewRegistry(zoneDefs)
	if err != nil {
		return nil, 0, 0, http.StatusBadRequest, err
	}

	cfg := req.Config
	if cfg == nil {
		cfg = s.tuning
	}

	var annotator engine.Annotator
	if req.FrameWidth > 0 && req.FrameHeight > 0 {
		renderer, err := render.NewRenderer(reg, req.FrameWidth, req.FrameHeight)
		if err != nil {
			return nil, 0, 0, http.StatusBadRequest, err
		}
		annotator = renderer
	}

	sess, err := engine.NewSession(reg, fps, cfg, annotator)
	if err != nil {
		return nil, 0, 0, http.StatusBadRequest, err
	}
	return sess, fps, reg.Len(), 0, nil
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	sess, fps, zoneCount, status, err := s.buildEngineSession(req)
	if err != nil {
		httputil.WriteJSONError(w, status, err.Error())
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	monitoring.Logf("api: session %s registered (%d zones, %.1f fps)", sess.ID(), zoneCount, fps)

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sess.ID(),
		"zone_count": zoneCount,
		"fps":        fps,
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	httputil.WriteJSONOK(w, map[string]interface{}{"sessions": ids})
}

// handleSessionByID dispatches /api/sessions/{id}/{action}.
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		httputil.BadRequest(w, "missing session id")
		return
	}
	id := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("unknown session %q", id))
		return
	}

	switch action {
	case "frames":
		s.feedSession(w, r, sess)
	case "stats":
		s.sessionStats(w, r, sess)
	case "finalize":
		s.finalizeSession(w, r, sess)
	case "abort":
		s.abortSession(w, r, sess)
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown action %q", action))
	}
}

func (s *Server) feedSession(w http.ResponseWriter, r *http.Request, sess *engine.Session) {
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
		if err := sess.Feed(frame); err != nil {
			if errors.Is(err, engine.ErrOutOfOrderFrame) {
				// The session is aborted; nothing further can be fed.
				s.removeSession(sess.ID())
				httputil.WriteJSONError(w, http.StatusConflict, err.Error())
				return
			}
			httputil.BadRequest(w, err.Error())
			return
		}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"fed": len(req.Frames)})
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request, sess *engine.Session) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, sess.Stats())
}

func (s *Server) finalizeSession(w http.ResponseWriter, r *http.Request, sess *engine.Session) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	res, err := sess.Finalize()
	if err != nil {
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
		return
	}
	s.removeSession(sess.ID())

	if s.store != nil {
		if err := s.store.SaveResult(res); err != nil {
			// The caller still gets the result; persistence failed.
			monitoring.Logf("api: save result %s: %v", res.ID, err)
		}
	}
	httputil.WriteJSONOK(w, res)
}

func (s *Server) abortSession(w http.ResponseWriter, r *http.Request, sess *engine.Session) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	sess.Abort()
	s.removeSession(sess.ID())
	httputil.WriteJSONOK(w, map[string]string{"status": "aborted"})
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
