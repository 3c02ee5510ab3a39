package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
)

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a sqlite-backed ProfileRepository.
func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, id int64) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: id=%d", id)

	var p models.Profile
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, created_at, last_active_at
FROM profiles
WHERE id = ?
`, id).Scan(&p.ID, &p.Username, &p.CreatedAt, &p.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("profile not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) List(ctx context.Context) ([]models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("listing profiles")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, created_at, last_active_at
FROM profiles
ORDER BY created_at ASC
`)
	if err != nil {
		log.Error("failed to list profiles: %v", err)
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.CreatedAt, &p.LastActiveAt); err != nil {
			log.Error("failed to scan profile row: %v", err)
			return nil, err
		}
		profiles = append(profiles, p)
	}
	log.Debug("found %d profiles", len(profiles))
	return profiles, rows.Err()
}

func (r *profileRepository) Upsert(ctx context.Context, username string) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("upserting profile: username=%s", username)

	var p models.Profile
	err := r.db.QueryRowContext(ctx, `
INSERT INTO profiles (username)
VALUES (?)
ON CONFLICT(username) DO UPDATE SET username = excluded.username
RETURNING id, username, created_at, last_active_at
`, username).Scan(&p.ID, &p.Username, &p.CreatedAt, &p.LastActiveAt)
	if err != nil {
		log.Error("failed to upsert profile: %v", err)
		return nil, err
	}
	log.Debug("profile upserted: id=%d", p.ID)
	return &p, nil
}

func (r *profileRepository) Touch(ctx context.Context, id int64, t time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("touching profile: id=%d", id)

	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET last_active_at = ? WHERE id = ?`, t, id)
	if err != nil {
		log.Error("failed to touch profile: %v", err)
	}
	return err
}

func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("deleting profile and history: id=%d", id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM sessions WHERE profile_id = ?`,
		`DELETE FROM language_stats_cache WHERE profile_id = ?`,
		`DELETE FROM daily_stats_cache WHERE profile_id = ?`,
		`DELETE FROM profiles WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			log.Error("failed to delete profile %d: %v", id, err)
			return err
		}
	}
	return tx.Commit()
}
