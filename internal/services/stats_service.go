package services

import (
	"context"

	"github.com/typespeed/typespeed/internal/errors"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
)

// StatsService exposes aggregate statistics and the session history.
type StatsService interface {
	Summary(ctx context.Context, profileID int64) (*models.SummaryStat, error)
	Languages(ctx context.Context, profileID int64) ([]models.LanguageStat, error)
	Daily(ctx context.Context, profileID int64, days int) ([]models.DailyStat, error)
	History(ctx context.Context, filter models.RecordFilter) ([]models.SessionRecord, int, error)
	Refresh(ctx context.Context, profileID int64) error
}

type statsService struct {
	statsRepo  repository.StatsRepository
	recordRepo repository.RecordRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(statsRepo repository.StatsRepository, recordRepo repository.RecordRepository) StatsService {
	return &statsService{statsRepo: statsRepo, recordRepo: recordRepo}
}

func (s *statsService) Summary(ctx context.Context, profileID int64) (*models.SummaryStat, error) {
	sum, err := s.statsRepo.Summary(ctx, profileID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to compute summary stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return sum, nil
}

func (s *statsService) Languages(ctx context.Context, profileID int64) ([]models.LanguageStat, error) {
	stats, err := s.statsRepo.LanguageStats(ctx, profileID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load language stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}

func (s *statsService) Daily(ctx context.Context, profileID int64, days int) ([]models.DailyStat, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	stats, err := s.statsRepo.DailyStats(ctx, profileID, days)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load daily stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}

func (s *statsService) History(ctx context.Context, filter models.RecordFilter) ([]models.SessionRecord, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	records, err := s.recordRepo.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list session history: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.recordRepo.Count(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to count session history: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return records, total, nil
}

func (s *statsService) Refresh(ctx context.Context, profileID int64) error {
	if err := s.statsRepo.Refresh(ctx, profileID); err != nil {
		logger.FromContext(ctx).Error("failed to refresh stats caches: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}
