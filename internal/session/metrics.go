package session

import "time"

// minBurstSpan bounds the divisor for burst windows at session start, so the
// first few keystrokes cannot produce absurd rates.
const minBurstSpan = time.Second

// Metrics is the derived view of a session at a point in time. It is computed
// on demand from the input log and per-position marks, never stored.
type Metrics struct {
	State       string  `json:"state"`
	Cursor      int     `json:"cursor"`
	Length      int     `json:"length"`
	ElapsedMs   int64   `json:"elapsed_ms"`
	CharsTyped  int     `json:"chars_typed"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Uncorrected int     `json:"uncorrected"`
	GrossWPM    float64 `json:"gross_wpm"`
	NetWPM      float64 `json:"net_wpm"`
	BurstWPM    float64 `json:"burst_wpm"`
	Accuracy    float64 `json:"accuracy"`
}

// Metrics computes the current metrics snapshot.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsLocked()
}

func (s *Session) metricsLocked() Metrics {
	m := Metrics{
		State:  s.state.String(),
		Cursor: s.cursor,
		Length: len(s.snippet),
	}

	var elapsed time.Duration
	switch s.state {
	case StateActive:
		elapsed = s.now().Sub(s.startedAt)
	case StateCompleted:
		elapsed = s.endedAt.Sub(s.startedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	m.ElapsedMs = elapsed.Milliseconds()

	// Skipped indentation is excluded from every count: it is neither typed
	// nor an error.
	for _, ev := range s.events {
		if ev.Skipped {
			continue
		}
		m.CharsTyped++
		if ev.Correct {
			m.Correct++
		} else {
			m.Incorrect++
		}
	}
	for _, mk := range s.marks {
		if mk == markIncorrect {
			m.Uncorrected++
		}
	}

	if m.CharsTyped > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.CharsTyped) * 100
	}

	minutes := elapsed.Minutes()
	if minutes > 0 {
		m.GrossWPM = (float64(m.CharsTyped) / 5.0) / minutes
		m.NetWPM = m.GrossWPM - float64(m.Uncorrected)/minutes
		if m.NetWPM < 0 {
			m.NetWPM = 0
		}
	}

	m.BurstWPM = s.burstLocked()
	return m
}

// burstLocked computes the maximum WPM over any trailing burst window of the
// input log. The log is small (bounded by snippet length and corrections), so
// a full recomputation per call is fine.
func (s *Session) burstLocked() float64 {
	if s.state == StateIdle {
		return 0
	}

	typed := make([]time.Time, 0, len(s.events))
	for _, ev := range s.events {
		if !ev.Skipped {
			typed = append(typed, ev.At)
		}
	}
	if len(typed) == 0 {
		return 0
	}

	best := 0.0
	lo := 0
	for hi := range typed {
		for typed[hi].Sub(typed[lo]) > s.burstWindow {
			lo++
		}
		span := s.burstWindow
		if sinceStart := typed[hi].Sub(s.startedAt); sinceStart < span {
			span = sinceStart
		}
		if span < minBurstSpan {
			span = minBurstSpan
		}
		chars := hi - lo + 1
		wpm := (float64(chars) / 5.0) / span.Minutes()
		if wpm > best {
			best = wpm
		}
	}
	return best
}
