// Package scanner turns a local source tree into CodeFile rows.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
)

// Scanner walks a root directory and loads supported source files.
type Scanner struct {
	root        string
	maxFileSize int64
	log         *logger.Logger
}

func New(root string, maxFileSize int64) *Scanner {
	if maxFileSize <= 0 {
		maxFileSize = 256 * 1024
	}
	return &Scanner{
		root:        root,
		maxFileSize: maxFileSize,
		log:         logger.Default().WithPrefix("scanner"),
	}
}

// Root returns the configured scan root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the root and returns every loadable source file. Unreadable or
// binary files are skipped with a warning, not a failure; an invalid root is
// an error.
func (s *Scanner) Scan(ctx context.Context) ([]models.CodeFile, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("scan root %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", s.root)
	}

	start := time.Now()
	var files []models.CodeFile
	skipped := 0

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn("walk error at %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != s.root) {
				return filepath.SkipDir
			}
			return nil
		}

		lang := DetectLanguage(path)
		if lang == "" {
			return nil
		}

		f, ok := s.load(path, lang)
		if !ok {
			skipped++
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("scan of %s found %d files (%d skipped) in %v", s.root, len(files), skipped, time.Since(start))
	return files, nil
}

func (s *Scanner) load(path, lang string) (models.CodeFile, bool) {
	info, err := os.Stat(path)
	if err != nil {
		s.log.Warn("failed to stat %s: %v", path, err)
		return models.CodeFile{}, false
	}
	if info.Size() > s.maxFileSize {
		s.log.Debug("skipping oversized file %s (%d bytes)", path, info.Size())
		return models.CodeFile{}, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("failed to read %s: %v", path, err)
		return models.CodeFile{}, false
	}
	if looksBinary(raw) {
		s.log.Debug("skipping binary file %s", path)
		return models.CodeFile{}, false
	}

	content := string(raw)
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}

	return models.CodeFile{
		Path:      filepath.ToSlash(rel),
		Language:  lang,
		Content:   content,
		LineCount: strings.Count(content, "\n") + 1,
		SizeBytes: info.Size(),
		ScannedAt: time.Now(),
	}, true
}

func looksBinary(raw []byte) bool {
	probe := raw
	if len(probe) > 512 {
		probe = probe[:512]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return true
	}
	return !utf8.Valid(raw)
}
