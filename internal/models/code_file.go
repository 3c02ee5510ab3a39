package models

import "time"

// CodeFile is a source file loaded from the scan root. Content is immutable
// once loaded; a rescan replaces the row.
type CodeFile struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Language  string    `json:"language"`
	Content   string    `json:"content,omitempty"`
	LineCount int       `json:"line_count"`
	SizeBytes int64     `json:"size_bytes"`
	ScannedAt time.Time `json:"scanned_at"`
	CreatedAt time.Time `json:"created_at"`
}

type CodeFileFilter struct {
	Language   string
	PathPrefix string
	Limit      int
	Offset     int
	OrderBy    string
	OrderDir   string
}
