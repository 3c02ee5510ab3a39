package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/typespeed/typespeed/internal/errors"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/worker"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.CodeFileFilter{
		Language:   q.Get("language"),
		PathPrefix: q.Get("prefix"),
		OrderBy:    q.Get("order_by"),
		OrderDir:   q.Get("order_dir"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	files, total, err := s.FileService.ListFiles(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"total": total,
	})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid file id"))
		return
	}

	file, err := s.FileService.GetFile(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, file)
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := s.FileService.Languages(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"languages": languages})
}

// handleScan queues a rescan of the source root.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	job := &worker.ScanJob{Scanner: s.Scanner, FileRepo: s.FileRepo}
	if !s.Pool.TrySubmit(job) {
		handleError(w, r, errors.NewConflictError("a scan is already queued"))
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
}
