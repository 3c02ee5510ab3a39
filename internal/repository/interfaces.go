package repository

import (
	"context"
	"time"

	"github.com/typespeed/typespeed/internal/models"
)

// ProfileRepository handles profile data access.
type ProfileRepository interface {
	Get(ctx context.Context, id int64) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Upsert(ctx context.Context, username string) (*models.Profile, error)
	Touch(ctx context.Context, id int64, t time.Time) error
	Delete(ctx context.Context, id int64) error
}

// FileRepository handles loaded source files.
type FileRepository interface {
	Get(ctx context.Context, id int64) (*models.CodeFile, error)
	List(ctx context.Context, filter models.CodeFileFilter) ([]models.CodeFile, error)
	Count(ctx context.Context, filter models.CodeFileFilter) (int, error)
	Random(ctx context.Context, language string) (*models.CodeFile, error)
	Upsert(ctx context.Context, f models.CodeFile) (int64, error)
	DeleteNotScannedSince(ctx context.Context, cutoff time.Time) (int64, error)
	Languages(ctx context.Context) ([]string, error)
}

// RecordRepository handles the bounded session history.
type RecordRepository interface {
	Insert(ctx context.Context, rec models.SessionRecord) (int64, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.SessionRecord, error)
	Count(ctx context.Context, filter models.RecordFilter) (int, error)
	Prune(ctx context.Context, profileID int64, keep int) (int64, error)
}

// StatsRepository handles aggregate statistics and their caches.
type StatsRepository interface {
	Summary(ctx context.Context, profileID int64) (*models.SummaryStat, error)
	LanguageStats(ctx context.Context, profileID int64) ([]models.LanguageStat, error)
	DailyStats(ctx context.Context, profileID int64, days int) ([]models.DailyStat, error)
	Refresh(ctx context.Context, profileID int64) error
}
