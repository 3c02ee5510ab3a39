package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
)

type recordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a sqlite-backed RecordRepository.
func NewRecordRepository(db *sql.DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Insert(ctx context.Context, rec models.SessionRecord) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("record_repo")
	log.Debug("inserting session record: profile_id=%d, language=%s, net_wpm=%.1f",
		rec.ProfileID, rec.Language, rec.NetWPM)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (
    profile_id, language, path, gross_wpm, net_wpm, burst_wpm, accuracy,
    duration_ms, chars_typed, errors, corrections, started_at, ended_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rec.ProfileID, rec.Language, rec.Path, rec.GrossWPM, rec.NetWPM, rec.BurstWPM,
		rec.Accuracy, rec.DurationMs, rec.CharsTyped, rec.Errors, rec.Corrections,
		rec.StartedAt, rec.EndedAt)
	if err != nil {
		log.Error("failed to insert session record: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *recordRepository) recordFilter(query squirrel.SelectBuilder, filter models.RecordFilter) squirrel.SelectBuilder {
	if filter.ProfileID != 0 {
		query = query.Where(squirrel.Eq{"profile_id": filter.ProfileID})
	}
	if filter.Language != "" {
		query = query.Where(squirrel.Eq{"language": filter.Language})
	}
	return query
}

func (r *recordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.SessionRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("record_repo")
	log.Debug("listing session records: profile_id=%d, language=%s", filter.ProfileID, filter.Language)

	query := r.recordFilter(sqlBuilder.Select(
		"id", "profile_id", "language", "path", "gross_wpm", "net_wpm", "burst_wpm",
		"accuracy", "duration_ms", "chars_typed", "errors", "corrections",
		"started_at", "ended_at", "created_at",
	).From("sessions"), filter)

	orderBy := "ended_at"
	if filter.OrderBy == "net_wpm" || filter.OrderBy == "accuracy" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if filter.OrderDir == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list session records: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		if err := rows.Scan(&rec.ID, &rec.ProfileID, &rec.Language, &rec.Path,
			&rec.GrossWPM, &rec.NetWPM, &rec.BurstWPM, &rec.Accuracy,
			&rec.DurationMs, &rec.CharsTyped, &rec.Errors, &rec.Corrections,
			&rec.StartedAt, &rec.EndedAt, &rec.CreatedAt); err != nil {
			log.Error("failed to scan record row: %v", err)
			return nil, err
		}
		records = append(records, rec)
	}
	log.Debug("found %d session records", len(records))
	return records, rows.Err()
}

func (r *recordRepository) Count(ctx context.Context, filter models.RecordFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("record_repo")

	query := r.recordFilter(sqlBuilder.Select("COUNT(*)").From("sessions"), filter)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count session records: %v", err)
		return 0, err
	}
	return count, nil
}

// Prune keeps the newest `keep` records for a profile and deletes the rest,
// enforcing the bounded history.
func (r *recordRepository) Prune(ctx context.Context, profileID int64, keep int) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("record_repo")
	if keep <= 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `
DELETE FROM sessions
WHERE profile_id = ?
  AND id NOT IN (
    SELECT id FROM sessions
    WHERE profile_id = ?
    ORDER BY ended_at DESC, id DESC
    LIMIT ?
  )
`, profileID, profileID, keep)
	if err != nil {
		log.Error("failed to prune history for profile %d: %v", profileID, err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Debug("pruned %d old records for profile %d", n, profileID)
	}
	return n, nil
}
