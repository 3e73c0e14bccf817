// Package server exposes the run registry over a REST control surface.
// Clients start runs, poll their status, fetch grid-ready results, and
// download artifacts.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xprtyg33k/teams-chat-extract/pkg/auth"
	"github.com/xprtyg33k/teams-chat-extract/pkg/jobs"
	"github.com/xprtyg33k/teams-chat-extract/pkg/logging"
)

// Server handles the HTTP control surface for background runs.
type Server struct {
	registry *jobs.Registry
	tokens   auth.TokenProvider
	logger   zerolog.Logger
}

// New creates a Server around a run registry.
func New(registry *jobs.Registry, tokens auth.TokenProvider) *Server {
	return &Server{
		registry: registry,
		tokens:   tokens,
		logger:   logging.NewLogger("server"),
	}
}

// Routes builds the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/auth/status", s.authStatus)

		api.Route("/runs", func(runs chi.Router) {
			runs.Post("/export-chat", s.startExportChat)
			runs.Post("/list-chats", s.startListChats)
			runs.Post("/list-active-chats", s.startListActiveChats)
			runs.Get("/history", s.history)
			runs.Get("/{runID}/status", s.runStatus)
			runs.Get("/{runID}/results", s.runResults)
			runs.Get("/{runID}/download", s.runDownload)
		})
	})

	return r
}

// runResponse is the submission acknowledgement.
type runResponse struct {
	RunID     string      `json:"run_id"`
	Kind      jobs.Kind   `json:"kind"`
	Status    jobs.Status `json:"status"`
	CreatedAt string      `json:"created_at"`
}

func (s *Server) authStatus(w http.ResponseWriter, r *http.Request) {
	_, err := s.tokens.BearerToken(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": err == nil})
}

func (s *Server) startExportChat(w http.ResponseWriter, r *http.Request) {
	var params jobs.ExportChatParams
	if !s.decodeStartRequest(w, r, &params) {
		return
	}
	s.startRun(w, func() (string, error) { return s.registry.StartExportChat(params) })
}

func (s *Server) startListChats(w http.ResponseWriter, r *http.Request) {
	var params jobs.ListChatsParams
	if !s.decodeStartRequest(w, r, &params) {
		return
	}
	s.startRun(w, func() (string, error) { return s.registry.StartListChats(params) })
}

func (s *Server) startListActiveChats(w http.ResponseWriter, r *http.Request) {
	var params jobs.ListActiveChatsParams
	if !s.decodeStartRequest(w, r, &params) {
		return
	}
	s.startRun(w, func() (string, error) { return s.registry.StartListActiveChats(params) })
}

// decodeStartRequest enforces the submission preconditions shared by
// all run kinds: a valid session and a well-formed body.
func (s *Server) decodeStartRequest(w http.ResponseWriter, r *http.Request, params any) bool {
	if _, err := s.tokens.BearerToken(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) startRun(w http.ResponseWriter, start func() (string, error)) {
	token, err := start()
	if err != nil {
		var vErr *jobs.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to start run")
		writeError(w, http.StatusInternalServerError, "Failed to start run")
		return
	}

	rec, _ := s.registry.Status(token)
	writeJSON(w, http.StatusOK, runResponse{
		RunID:     rec.Token,
		Kind:      rec.Kind,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Server) history(w http.ResponseWriter, _ *http.Request) {
	runs := s.registry.ListAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": len(runs),
	})
}

func (s *Server) runStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.registry.Status(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) runResults(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	result, ok := s.registry.Result(runID)
	if !ok {
		writeError(w, http.StatusNotFound, "Run results not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     runID,
		"summary":    result.Summary,
		"grid_data":  result.Grid,
		"grid_total": result.Total,
	})
}

func (s *Server) runDownload(w http.ResponseWriter, r *http.Request) {
	path, ok := s.registry.ArtifactPath(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Result file not found")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
