package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/waitline/waitline/internal/httputil"
	"github.com/waitline/waitline/internal/report"
	"github.com/waitline/waitline/internal/storage"
)

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no result store configured")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	list, err := s.store.ListAnalyses(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list analyses: %v", err))
		return
	}
	if list == nil {
		list = []storage.AnalysisSummary{}
	}
	httputil.WriteJSONOK(w, list)
}

// handleAnalysisByID dispatches /api/analyses/{id} and
// /api/analyses/{id}/report.
func (s *Server) handleAnalysisByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no result store configured")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		httputil.BadRequest(w, "missing analysis id")
		return
	}
	id := parts[0]

	res, err := s.store.LoadResult(id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.NotFound(w, fmt.Sprintf("unknown analysis %q", id))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load analysis: %v", err))
		return
	}

	if len(parts) == 2 && parts[1] == "report" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.RenderHTML(res, w); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render report: %v", err))
		}
		return
	}
	if len(parts) == 2 {
		httputil.NotFound(w, fmt.Sprintf("unknown action %q", parts[1]))
		return
	}

	httputil.WriteJSONOK(w, res)
}
