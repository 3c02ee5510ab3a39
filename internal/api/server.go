// Package api exposes the HTTP and websocket surface of the typing trainer.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/typespeed/typespeed/internal/db"
	"github.com/typespeed/typespeed/internal/repository"
	"github.com/typespeed/typespeed/internal/scanner"
	"github.com/typespeed/typespeed/internal/services"
	"github.com/typespeed/typespeed/internal/worker"
)

// Server holds the services and background machinery the handlers need.
type Server struct {
	DB             *db.DB
	ProfileService services.ProfileService
	FileService    services.FileService
	SessionService services.SessionService
	StatsService   services.StatsService
	Pool           *worker.Pool
	Scanner        *scanner.Scanner
	FileRepo       repository.FileRepository
	StatsRepo      repository.StatsRepository
	LiveTick       time.Duration
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)
		r.Post("/profiles/{id}/select", s.handleSelectProfile)
		r.Delete("/profiles/{id}", s.handleDeleteProfile)

		r.Get("/files", s.handleListFiles)
		r.Get("/files/{id}", s.handleGetFile)
		r.Get("/languages", s.handleLanguages)
		r.Post("/scan", s.handleScan)

		// Everything below needs an active profile.
		r.Group(func(r chi.Router) {
			r.Use(s.profileMiddleware)

			r.Post("/sessions", s.handleStartSession)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Post("/sessions/{id}/keystrokes", s.handleKeystroke)
			r.Post("/sessions/{id}/backspace", s.handleBackspace)
			r.Post("/sessions/{id}/reset", s.handleResetSession)
			r.Post("/sessions/{id}/complete", s.handleCompleteSession)
			r.Get("/sessions/{id}/metrics", s.handleSessionMetrics)
			r.Get("/sessions/{id}/live", s.handleSessionLive)

			r.Get("/stats/summary", s.handleStatsSummary)
			r.Get("/stats/languages", s.handleStatsLanguages)
			r.Get("/stats/daily", s.handleStatsDaily)
			r.Post("/stats/refresh", s.handleStatsRefresh)
			r.Get("/history", s.handleHistory)
		})
	})

	return r
}
