package sqlite

import (
	"context"
	"database/sql"

	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a sqlite-backed StatsRepository. Language and
// daily aggregates are served from cache tables refreshed transactionally;
// the summary is cheap enough to compute live.
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Summary(ctx context.Context, profileID int64) (*models.SummaryStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("computing summary: profile_id=%d", profileID)

	var s models.SummaryStat
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(duration_ms), 0),
       COALESCE(SUM(chars_typed), 0),
       COALESCE(AVG(gross_wpm), 0),
       COALESCE(AVG(net_wpm), 0),
       COALESCE(MAX(net_wpm), 0),
       COALESCE(AVG(accuracy), 0)
FROM sessions
WHERE profile_id = ?
`, profileID).Scan(&s.TotalSessions, &s.TotalDurationMs, &s.TotalChars,
		&s.AvgGrossWPM, &s.AvgNetWPM, &s.BestNetWPM, &s.AvgAccuracy)
	if err != nil {
		log.Error("failed to compute summary: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *statsRepository) LanguageStats(ctx context.Context, profileID int64) ([]models.LanguageStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("fetching language stats: profile_id=%d", profileID)

	rows, err := r.db.QueryContext(ctx, `
SELECT language, total_sessions, avg_net_wpm, best_net_wpm, avg_accuracy, total_duration_ms
FROM language_stats_cache
WHERE profile_id = ?
ORDER BY total_sessions DESC
`, profileID)
	if err != nil {
		log.Error("failed to query language stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	var stats []models.LanguageStat
	for rows.Next() {
		var s models.LanguageStat
		if err := rows.Scan(&s.Language, &s.TotalSessions, &s.AvgNetWPM,
			&s.BestNetWPM, &s.AvgAccuracy, &s.TotalDurationMs); err != nil {
			log.Error("failed to scan language stat row: %v", err)
			return nil, err
		}
		stats = append(stats, s)
	}
	log.Debug("found %d language stats", len(stats))
	return stats, rows.Err()
}

func (r *statsRepository) DailyStats(ctx context.Context, profileID int64, days int) ([]models.DailyStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("fetching daily stats: profile_id=%d, days=%d", profileID, days)

	if days <= 0 {
		days = 30
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT day, total_sessions, avg_net_wpm, avg_accuracy, total_chars
FROM daily_stats_cache
WHERE profile_id = ?
ORDER BY day DESC
LIMIT ?
`, profileID, days)
	if err != nil {
		log.Error("failed to query daily stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	var stats []models.DailyStat
	for rows.Next() {
		var s models.DailyStat
		if err := rows.Scan(&s.Day, &s.TotalSessions, &s.AvgNetWPM, &s.AvgAccuracy, &s.TotalChars); err != nil {
			log.Error("failed to scan daily stat row: %v", err)
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Refresh recomputes the cache tables for a profile from the sessions table.
func (r *statsRepository) Refresh(ctx context.Context, profileID int64) error {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("refreshing cached stats: profile_id=%d", profileID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.refreshLanguageStatsTx(ctx, tx, profileID); err != nil {
		log.Error("failed to refresh language stats: %v", err)
		return err
	}
	if err := r.refreshDailyStatsTx(ctx, tx, profileID); err != nil {
		log.Error("failed to refresh daily stats: %v", err)
		return err
	}
	return tx.Commit()
}

func (r *statsRepository) refreshLanguageStatsTx(ctx context.Context, tx *sql.Tx, profileID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM language_stats_cache WHERE profile_id = ?`, profileID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO language_stats_cache (profile_id, language, total_sessions, avg_net_wpm, best_net_wpm, avg_accuracy, total_duration_ms)
SELECT profile_id,
       language,
       COUNT(*) AS total_sessions,
       ROUND(AVG(net_wpm), 2) AS avg_net_wpm,
       ROUND(MAX(net_wpm), 2) AS best_net_wpm,
       ROUND(AVG(accuracy), 2) AS avg_accuracy,
       SUM(duration_ms) AS total_duration_ms
FROM sessions
WHERE profile_id = ?
GROUP BY profile_id, language
`, profileID)
	return err
}

func (r *statsRepository) refreshDailyStatsTx(ctx context.Context, tx *sql.Tx, profileID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_stats_cache WHERE profile_id = ?`, profileID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO daily_stats_cache (profile_id, day, total_sessions, avg_net_wpm, avg_accuracy, total_chars)
SELECT profile_id,
       strftime('%Y-%m-%d', ended_at) AS day,
       COUNT(*) AS total_sessions,
       ROUND(AVG(net_wpm), 2) AS avg_net_wpm,
       ROUND(AVG(accuracy), 2) AS avg_accuracy,
       SUM(chars_typed) AS total_chars
FROM sessions
WHERE profile_id = ?
GROUP BY profile_id, day
`, profileID)
	return err
}
