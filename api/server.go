// Package api exposes the queue-analytics engine over HTTP: session
// registration and feeding, stored-analysis retrieval, report rendering,
// and the camera registry. JSON in, JSON out; no auth.
package api

import (
	"net/http"
	"sync"

	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/httputil"
	"github.com/waitline/waitline/internal/storage"
	"github.com/waitline/waitline/internal/stream"
	"github.com/waitline/waitline/internal/version"
)

// Server holds the live sessions and streams, and the result store.
type Server struct {
	store   *storage.Store
	cameras *config.CameraRegistry
	tuning  *config.AnalysisConfig

	mu       sync.Mutex
	sessions map[string]*engine.Session
	streams  map[string]*stream.Session
}

// NewServer returns a server backed by store. cameras and tuning may be
// nil; sessions then require explicit zones and run on default tuning.
func NewServer(store *storage.Store, cameras *config.CameraRegistry, tuning *config.AnalysisConfig) *Server {
	return &Server{
		store:    store,
		cameras:  cameras,
		tuning:   tuning,
		sessions: make(map[string]*engine.Session),
		streams:  make(map[string]*stream.Session),
	}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSessionByID)
	mux.HandleFunc("/api/streams", s.handleStreams)
	mux.HandleFunc("/api/streams/", s.handleStreamByID)
	mux.HandleFunc("/api/analyses", s.handleListAnalyses)
	mux.HandleFunc("/api/analyses/", s.handleAnalysisByID)
	mux.HandleFunc("/api/cameras", s.handleListCameras)
	mux.HandleFunc("/", s.handleHome)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("Welcome to the Waitline server!"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	activeSessions := len(s.sessions)
	activeStreams := len(s.streams)
	s.mu.Unlock()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":          "ok",
		"version":         version.Version,
		"active_sessions": activeSessions,
		"active_streams":  activeStreams,
	})
}

func (s *Server) handleListCameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.cameras == nil {
		httputil.WriteJSONOK(w, []config.Camera{})
		return
	}
	httputil.WriteJSONOK(w, s.cameras.Cameras())
}
