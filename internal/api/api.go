// Package api implements the HTTP surface consumed by the GUI shell and
// the browser extension: submit/cancel/retry/remove calls plus a WebSocket
// event feed for live progress binding.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Xisisrefliel/VidPull/internal/config"
	"github.com/Xisisrefliel/VidPull/internal/download"
	"github.com/Xisisrefliel/VidPull/internal/events"
)

// Server is the HTTP API server.
type Server struct {
	manager *download.Manager
	cfg     *config.Store
	bus     *events.Bus
	log     *slog.Logger
}

// New creates an API server.
func New(manager *download.Manager, cfg *config.Store, bus *events.Bus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{manager: manager, cfg: cfg, bus: bus, log: log}
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Jobs
	mux.HandleFunc("POST /api/v1/jobs", s.submitJob)
	mux.HandleFunc("GET /api/v1/jobs", s.listJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.getJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/cancel", s.cancelJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/retry", s.retryJob)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", s.removeJob)

	// History
	mux.HandleFunc("GET /api/v1/history", s.listHistory)

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /api/v1/settings", s.getSettings)
	mux.HandleFunc("PUT /api/v1/settings", s.updateSettings)

	// Live event feed
	mux.HandleFunc("GET /api/v1/events", s.streamEvents)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

type submitRequest struct {
	URL string `json:"url"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	job, err := s.manager.Submit(req.URL)
	if err != nil {
		if errors.Is(err, download.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, "INVALID_URL", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "SUBMIT_FAILED", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Jobs())
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("job %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Cancel(id); err != nil {
		switch {
		case errors.Is(err, download.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, download.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "INVALID_STATE", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "CANCEL_FAILED", err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) retryJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.manager.Retry(id)
	if err != nil {
		switch {
		case errors.Is(err, download.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, download.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "INVALID_STATE", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "RETRY_FAILED", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) removeJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Remove(id); err != nil {
		switch {
		case errors.Is(err, download.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, download.ErrJobActive):
			writeError(w, http.StatusConflict, "JOB_ACTIVE", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "REMOVE_FAILED", err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.History())
}

type statusResponse struct {
	Available     bool `json:"executable_available"`
	ActiveJobs    int  `json:"active_jobs"`
	MaxConcurrent int  `json:"max_concurrent"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Available:     s.manager.Available(),
		ActiveJobs:    s.manager.ActiveCount(),
		MaxConcurrent: s.cfg.Settings().MaxConcurrent,
	})
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Settings())
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req config.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	err := s.cfg.UpdateSettings(func(set *config.Settings) { *set = req })
	if err != nil {
		writeError(w, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
		return
	}

	updated := s.cfg.Settings()
	s.manager.SetMaxConcurrent(updated.MaxConcurrent)
	writeJSON(w, http.StatusOK, updated)
}
