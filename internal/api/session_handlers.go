package api

import (
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/typespeed/typespeed/internal/errors"
	"github.com/typespeed/typespeed/internal/services"
	"github.com/typespeed/typespeed/internal/worker"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	var req services.StartSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	started, err := s.SessionService.Start(r.Context(), profile.ID, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, started)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	view, err := s.SessionService.Get(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleKeystroke applies one typed character. The body carries the character
// as a string so clients can send "\n" and multibyte runes uniformly.
func (s *Server) handleKeystroke(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	var req struct {
		Char string `json:"char"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	typed, size := utf8.DecodeRuneInString(req.Char)
	if size == 0 || typed == utf8.RuneError || len(req.Char) != size {
		handleError(w, r, errors.NewValidationError("char", "must be exactly one character"))
		return
	}

	metrics, err := s.SessionService.Keystroke(r.Context(), profile.ID, chi.URLParam(r, "id"), typed)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleBackspace(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	metrics, moved, err := s.SessionService.Backspace(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"moved":   moved,
		"metrics": metrics,
	})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	view, err := s.SessionService.Reset(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSessionMetrics(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	metrics, err := s.SessionService.Metrics(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// handleCompleteSession persists the finished session and queues a rebuild of
// the cached aggregates.
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	rec, err := s.SessionService.Complete(r.Context(), profile.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	s.Pool.TrySubmit(&worker.RefreshStatsJob{StatsRepo: s.StatsRepo, ProfileID: profile.ID})
	respondJSON(w, http.StatusOK, rec)
}
