package models

import "time"

// SessionRecord is the summary of a completed typing session, appended to the
// bounded per-profile history.
type SessionRecord struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	Language    string    `json:"language"`
	Path        string    `json:"path"`
	GrossWPM    float64   `json:"gross_wpm"`
	NetWPM      float64   `json:"net_wpm"`
	BurstWPM    float64   `json:"burst_wpm"`
	Accuracy    float64   `json:"accuracy"`
	DurationMs  int64     `json:"duration_ms"`
	CharsTyped  int       `json:"chars_typed"`
	Errors      int       `json:"errors"`
	Corrections int       `json:"corrections"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type RecordFilter struct {
	ProfileID int64
	Language  string
	Limit     int
	Offset    int
	OrderBy   string
	OrderDir  string
}
