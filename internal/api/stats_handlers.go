package api

import (
	"net/http"
	"strconv"

	"github.com/typespeed/typespeed/internal/errors"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/worker"
)

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	summary, err := s.StatsService.Summary(r.Context(), profile.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatsLanguages(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	stats, err := s.StatsService.Languages(r.Context(), profile.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"languages": stats})
}

func (s *Server) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	stats, err := s.StatsService.Daily(r.Context(), profile.ID, days)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"days": stats})
}

func (s *Server) handleStatsRefresh(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())

	if !s.Pool.TrySubmit(&worker.RefreshStatsJob{StatsRepo: s.StatsRepo, ProfileID: profile.ID}) {
		handleError(w, r, errors.NewConflictError("refresh queue is full, try again later"))
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	profile := profileFromContext(r.Context())
	q := r.URL.Query()

	filter := models.RecordFilter{
		ProfileID: profile.ID,
		Language:  q.Get("language"),
		OrderBy:   q.Get("order_by"),
		OrderDir:  q.Get("order_dir"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	records, total, err := s.StatsService.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
	})
}
