package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/typespeed/typespeed/internal/api"
	"github.com/typespeed/typespeed/internal/config"
	"github.com/typespeed/typespeed/internal/db"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/repository/sqlite"
	"github.com/typespeed/typespeed/internal/scanner"
	"github.com/typespeed/typespeed/internal/services"
	"github.com/typespeed/typespeed/internal/session"
	"github.com/typespeed/typespeed/internal/snippet"
	"github.com/typespeed/typespeed/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("typespeed server starting")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("scan_root=%s", cfg.ScanRoot)
	log.Debug("snippet_max_lines=%d", cfg.SnippetMaxLines)
	log.Debug("burst_window=%v", cfg.BurstWindow)
	log.Debug("session_ttl=%v", cfg.SessionTTL)
	log.Debug("history_limit=%d", cfg.HistoryLimit)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	profileRepo := sqlite.NewProfileRepository(database.DB)
	fileRepo := sqlite.NewFileRepository(database.DB)
	recordRepo := sqlite.NewRecordRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)

	manager := session.NewManager(cfg.SessionTTL)
	selector := snippet.NewSelector(cfg.SnippetMaxLines)
	src := scanner.New(cfg.ScanRoot, cfg.MaxFileSize)
	pool := worker.NewPool(cfg.ScanWorkerCount, cfg.ScanQueueSize)

	srv := &api.Server{
		DB:             database,
		ProfileService: services.NewProfileService(profileRepo),
		FileService:    services.NewFileService(fileRepo),
		SessionService: services.NewSessionService(
			manager, fileRepo, recordRepo, selector, cfg.HistoryLimit,
			session.WithBurstWindow(cfg.BurstWindow),
		),
		StatsService: services.NewStatsService(statsRepo, recordRepo),
		Pool:         pool,
		Scanner:      src,
		FileRepo:     fileRepo,
		StatsRepo:    statsRepo,
		LiveTick:     cfg.LiveTick,
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	go manager.RunSweeper(ctx, cfg.SessionTTL/4)

	// Initial scan, then rescan on filesystem changes.
	pool.Submit(&worker.ScanJob{Scanner: src, FileRepo: fileRepo})
	watcher, err := scanner.NewWatcher(cfg.ScanRoot, cfg.WatchDebounce, func() {
		pool.TrySubmit(&worker.ScanJob{Scanner: src, FileRepo: fileRepo})
	})
	if err != nil {
		log.Warn("filesystem watcher unavailable: %v", err)
	} else {
		go watcher.Run(ctx)
		defer watcher.Close()
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the live metrics websocket outlives any fixed limit.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("received signal %v, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}
	pool.Stop()

	log.Info("typespeed server stopped")
}
