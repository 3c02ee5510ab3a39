package session

import (
	"github.com/typespeed/typespeed/internal/models"
)

// Record builds the persistable summary of a completed session. Returns false
// if the session has not completed.
func (s *Session) Record() (models.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return models.SessionRecord{}, false
	}

	m := s.metricsLocked()

	// Every typable position holds exactly one final keystroke once the
	// session completes; anything typed beyond that was re-typed after a
	// backspace.
	typable := 0
	for _, skip := range s.autoSkip {
		if !skip {
			typable++
		}
	}
	corrections := m.CharsTyped - typable
	if corrections < 0 {
		corrections = 0
	}

	return models.SessionRecord{
		ProfileID:   s.ProfileID,
		Language:    s.Language,
		Path:        s.Path,
		GrossWPM:    m.GrossWPM,
		NetWPM:      m.NetWPM,
		BurstWPM:    m.BurstWPM,
		Accuracy:    m.Accuracy,
		DurationMs:  m.ElapsedMs,
		CharsTyped:  m.CharsTyped,
		Errors:      m.Incorrect,
		Corrections: corrections,
		StartedAt:   s.startedAt,
		EndedAt:     s.endedAt,
	}, true
}
