// Package server exposes the mind-mapping core over HTTP for browser
// shells. It wraps one shared session (store + controller) behind a JSON
// API; tree state stays in memory and dies with the process.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/Nicnick-Xia/MindStorm/pkg/errors"
	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap/layout"
	"github.com/Nicnick-Xia/MindStorm/pkg/observability"
)

// Server is the HTTP shell around one mind-map session.
type Server struct {
	ctrl   *mindmap.Controller
	logger *log.Logger

	mu    sync.Mutex
	focus string // last node the camera should center on
}

// New creates a Server around ctrl and registers itself as the
// controller's focus sink. If logger is nil, log.Default() is used.
func New(ctrl *mindmap.Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{ctrl: ctrl, logger: logger}
	ctrl.SetFocusFunc(s.setFocus)
	return s
}

// Handler builds the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/seed", s.handleSeed)
		r.Post("/nodes/{id}/expand", s.handleExpand)
		r.Get("/layout", s.handleLayout)
		r.Get("/focus", s.handleFocus)
		r.Post("/reset", s.handleReset)
	})
	return r
}

func (s *Server) setFocus(nodeID string) {
	s.mu.Lock()
	s.focus = nodeID
	s.mu.Unlock()
}

// =============================================================================
// Handlers
// =============================================================================

type seedRequest struct {
	Text string `json:"text"`
}

type seedResponse struct {
	RootID string        `json:"root_id"`
	Layout layout.Result `json:"layout"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid JSON body"))
		return
	}

	rootID, err := s.ctrl.Seed(r.Context(), req.Text)
	if err != nil && !apperrors.Is(err, apperrors.ErrCodeCollaborator) {
		s.writeError(w, err)
		return
	}
	// A collaborator failure still seeded the root; report the partial
	// state with the error code so clients can offer a retry.
	resp := seedResponse{RootID: rootID, Layout: s.computeLayout(r)}
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  apperrors.UserMessage(err),
			"code":   apperrors.GetCode(err),
			"root":   resp.RootID,
			"layout": resp.Layout,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "id")
	if nodeID == "" {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "missing node id"))
		return
	}

	if err := s.ctrl.Expand(r.Context(), nodeID); err != nil {
		s.writeError(w, err)
		return
	}
	// No-op expansions (unknown node, already expanded, in flight) land
	// here too: the response is simply the current layout.
	s.writeJSON(w, http.StatusOK, s.computeLayout(r))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.computeLayout(r))
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	focus := s.focus
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]string{"node_id": focus})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	s.setFocus("")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) computeLayout(r *http.Request) layout.Result {
	var res layout.Result
	start := time.Now()
	s.ctrl.WithSnapshot(func(nodes map[string]mindmap.Node, rootID string) {
		res = layout.Compute(nodes, rootID)
	})
	observability.Layout().OnLayout(r.Context(), len(res.Nodes), time.Since(start))
	return res
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeNodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeCollaborator, apperrors.ErrCodeTimeout:
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, errorResponse{
		Error: apperrors.UserMessage(err),
		Code:  apperrors.GetCode(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
