package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type fileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a sqlite-backed FileRepository.
func NewFileRepository(db *sql.DB) repository.FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Get(ctx context.Context, id int64) (*models.CodeFile, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")
	log.Debug("getting file: id=%d", id)

	var f models.CodeFile
	err := r.db.QueryRowContext(ctx, `
SELECT id, path, language, content, line_count, size_bytes, scanned_at, created_at
FROM code_files
WHERE id = ?
`, id).Scan(&f.ID, &f.Path, &f.Language, &f.Content, &f.LineCount, &f.SizeBytes, &f.ScannedAt, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("file not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get file: %v", err)
		return nil, err
	}
	return &f, nil
}

func (r *fileRepository) fileFilter(query squirrel.SelectBuilder, filter models.CodeFileFilter) squirrel.SelectBuilder {
	if filter.Language != "" {
		query = query.Where(squirrel.Eq{"language": filter.Language})
	}
	if filter.PathPrefix != "" {
		query = query.Where(squirrel.Like{"path": filter.PathPrefix + "%"})
	}
	return query
}

func (r *fileRepository) List(ctx context.Context, filter models.CodeFileFilter) ([]models.CodeFile, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")
	log.Debug("listing files: language=%s, prefix=%s", filter.Language, filter.PathPrefix)

	// Content is intentionally omitted from listings; it is fetched per file.
	query := r.fileFilter(sqlBuilder.Select(
		"id", "path", "language", "line_count", "size_bytes", "scanned_at", "created_at",
	).From("code_files"), filter)

	orderBy := "path"
	if filter.OrderBy == "scanned_at" || filter.OrderBy == "line_count" {
		orderBy = filter.OrderBy
	}
	orderDir := "ASC"
	if filter.OrderDir == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
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
		log.Error("failed to list files: %v", err)
		return nil, err
	}
	defer rows.Close()

	var files []models.CodeFile
	for rows.Next() {
		var f models.CodeFile
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.LineCount, &f.SizeBytes, &f.ScannedAt, &f.CreatedAt); err != nil {
			log.Error("failed to scan file row: %v", err)
			return nil, err
		}
		files = append(files, f)
	}
	log.Debug("found %d files", len(files))
	return files, rows.Err()
}

func (r *fileRepository) Count(ctx context.Context, filter models.CodeFileFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")

	query := r.fileFilter(sqlBuilder.Select("COUNT(*)").From("code_files"), filter)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count files: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *fileRepository) Random(ctx context.Context, language string) (*models.CodeFile, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")
	log.Debug("picking random file: language=%s", language)

	query := `
SELECT id, path, language, content, line_count, size_bytes, scanned_at, created_at
FROM code_files
`
	args := []any{}
	if language != "" {
		query += `WHERE language = ?
`
		args = append(args, language)
	}
	query += `ORDER BY RANDOM() LIMIT 1`

	var f models.CodeFile
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&f.ID, &f.Path, &f.Language, &f.Content, &f.LineCount, &f.SizeBytes, &f.ScannedAt, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no files available for language=%s", language)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to pick random file: %v", err)
		return nil, err
	}
	return &f, nil
}

func (r *fileRepository) Upsert(ctx context.Context, f models.CodeFile) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")
	log.Debug("upserting file: path=%s", f.Path)

	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO code_files (path, language, content, line_count, size_bytes, scanned_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
    language = excluded.language,
    content = excluded.content,
    line_count = excluded.line_count,
    size_bytes = excluded.size_bytes,
    scanned_at = excluded.scanned_at
RETURNING id
`, f.Path, f.Language, f.Content, f.LineCount, f.SizeBytes, f.ScannedAt).Scan(&id)
	if err != nil {
		log.Error("failed to upsert file %s: %v", f.Path, err)
		return 0, err
	}
	return id, nil
}

func (r *fileRepository) DeleteNotScannedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")
	log.Debug("deleting files not scanned since %s", cutoff.Format(time.RFC3339))

	res, err := r.db.ExecContext(ctx, `DELETE FROM code_files WHERE scanned_at < ?`, cutoff)
	if err != nil {
		log.Error("failed to delete stale files: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info("removed %d files no longer present", n)
	}
	return n, nil
}

func (r *fileRepository) Languages(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("file_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT language FROM code_files ORDER BY language
`)
	if err != nil {
		log.Error("failed to list languages: %v", err)
		return nil, err
	}
	defer rows.Close()

	var langs []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}
