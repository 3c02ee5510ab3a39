package worker

import (
	"context"
	"time"

	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/repository"
	"github.com/typespeed/typespeed/internal/scanner"
)

// ScanJob walks the scan root and syncs the code_files table: every file
// found is upserted, and rows whose file disappeared are removed.
type ScanJob struct {
	Scanner  *scanner.Scanner
	FileRepo repository.FileRepository
}

func (j *ScanJob) Name() string { return "scan_files" }

func (j *ScanJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	started := time.Now()

	files, err := j.Scanner.Scan(ctx)
	if err != nil {
		return err
	}

	upserted := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := j.FileRepo.Upsert(ctx, f); err != nil {
			log.Warn("failed to upsert %s: %v", f.Path, err)
			continue
		}
		upserted++
	}

	removed, err := j.FileRepo.DeleteNotScannedSince(ctx, started)
	if err != nil {
		log.Warn("failed to remove stale files: %v", err)
	}

	log.Info("sync done: %d files upserted, %d stale removed", upserted, removed)
	return nil
}

// RefreshStatsJob rebuilds the cached aggregate tables for one profile.
type RefreshStatsJob struct {
	StatsRepo repository.StatsRepository
	ProfileID int64
}

func (j *RefreshStatsJob) Name() string { return "refresh_stats" }

func (j *RefreshStatsJob) Run(ctx context.Context) error {
	return j.StatsRepo.Refresh(ctx, j.ProfileID)
}
