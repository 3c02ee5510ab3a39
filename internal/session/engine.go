// Package session implements the per-keystroke typing session state machine
// and its derived metrics.
package session

import (
	"errors"
	"sync"
	"time"
)

// State is the lifecycle state of a typing session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	// ErrCompleted is returned for input against a finished session.
	ErrCompleted = errors.New("session already completed")
	// ErrEmptySnippet is returned when a session is created with no typable content.
	ErrEmptySnippet = errors.New("snippet has no typable content")
)

// InputEvent is one entry of the append-only input log.
type InputEvent struct {
	Expected rune      `json:"expected"`
	Typed    rune      `json:"typed"`
	At       time.Time `json:"at"`
	Correct  bool      `json:"correct"`
	Skipped  bool      `json:"skipped"`
}

// mark is the current per-position correctness state. Unlike the input log it
// is mutable: backspace clears marks so errors can be corrected.
type mark uint8

const (
	markNone mark = iota
	markCorrect
	markIncorrect
	markSkipped
)

// Session tracks cursor position, correctness and timing for one snippet.
// All methods are safe for concurrent use; mutation still happens one discrete
// input event at a time under the session lock.
type Session struct {
	ID        string
	ProfileID int64
	FileID    int64
	Language  string
	Path      string

	mu          sync.Mutex
	snippet     []rune
	autoSkip    []bool
	state       State
	cursor      int
	startedAt   time.Time
	endedAt     time.Time
	events      []InputEvent
	marks       []mark
	burstWindow time.Duration
	now         func() time.Time
	lastSeen    time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithBurstWindow sets the trailing window for burst WPM.
func WithBurstWindow(d time.Duration) Option {
	return func(s *Session) { s.burstWindow = d }
}

// New creates an idle session for the given snippet text. Leading indentation
// of the first line is skipped immediately so the cursor starts on the first
// typable character.
func New(id string, profileID int64, snippet string, opts ...Option) (*Session, error) {
	runes := []rune(snippet)
	if len(runes) == 0 {
		return nil, ErrEmptySnippet
	}
	s := &Session{
		ID:          id,
		ProfileID:   profileID,
		snippet:     runes,
		autoSkip:    indentPositions(runes),
		marks:       make([]mark, len(runes)),
		burstWindow: 10 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSeen = s.now()

	typable := 0
	for _, skip := range s.autoSkip {
		if !skip {
			typable++
		}
	}
	if typable == 0 {
		return nil, ErrEmptySnippet
	}

	s.skipRun()
	return s, nil
}

// indentPositions marks every line-leading whitespace position. Those are
// advanced over without user input and logged as trivially correct.
func indentPositions(runes []rune) []bool {
	skip := make([]bool, len(runes))
	atLineStart := true
	for i, r := range runes {
		switch {
		case r == '\n':
			atLineStart = true
		case atLineStart && (r == ' ' || r == '\t'):
			skip[i] = true
		default:
			atLineStart = false
		}
	}
	return skip
}

// skipRun advances the cursor over auto-skip positions, appending skipped
// events to the log. Caller must hold the lock (or be the constructor).
func (s *Session) skipRun() {
	for s.cursor < len(s.snippet) && s.autoSkip[s.cursor] {
		c := s.snippet[s.cursor]
		s.events = append(s.events, InputEvent{
			Expected: c,
			Typed:    c,
			At:       s.now(),
			Correct:  true,
			Skipped:  true,
		})
		s.marks[s.cursor] = markSkipped
		s.cursor++
	}
}

// Keystroke applies one typed character at the cursor. The cursor advances
// unconditionally; a mismatch is recorded, not blocked. The first accepted
// keystroke transitions idle to active and records the start time.
func (s *Session) Keystroke(typed rune) (Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return s.metricsLocked(), ErrCompleted
	}

	now := s.now()
	s.lastSeen = now
	if s.state == StateIdle {
		s.state = StateActive
		s.startedAt = now
	}

	expected := s.snippet[s.cursor]
	correct := typed == expected
	s.events = append(s.events, InputEvent{
		Expected: expected,
		Typed:    typed,
		At:       now,
		Correct:  correct,
	})
	if correct {
		s.marks[s.cursor] = markCorrect
	} else {
		s.marks[s.cursor] = markIncorrect
	}
	s.cursor++
	s.skipRun()

	if s.cursor == len(s.snippet) {
		s.state = StateCompleted
		s.endedAt = now
	}
	return s.metricsLocked(), nil
}

// Backspace moves the cursor back one non-skipped position, clearing its
// recorded mark and any skipped marks stepped over on the way. The input log
// is never popped. Reports whether the cursor moved.
func (s *Session) Backspace() (Metrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.now()
	if s.state != StateActive || s.cursor == 0 {
		return s.metricsLocked(), false
	}

	moved := false
	for s.cursor > 0 && s.marks[s.cursor-1] == markSkipped {
		s.marks[s.cursor-1] = markNone
		s.cursor--
		moved = true
	}
	if s.cursor > 0 {
		s.marks[s.cursor-1] = markNone
		s.cursor--
		moved = true
	}
	return s.metricsLocked(), moved
}

// Reset discards all progress and returns the session to idle, keeping its
// snippet and identity. Leading indentation is skipped again.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateIdle
	s.cursor = 0
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
	s.events = nil
	for i := range s.marks {
		s.marks[i] = markNone
	}
	s.lastSeen = s.now()
	s.skipRun()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the current cursor position, always within [0, Length].
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Length returns the snippet length in runes.
func (s *Session) Length() int {
	return len(s.snippet)
}

// Snippet returns the snippet text.
func (s *Session) Snippet() string {
	return string(s.snippet)
}

// Events returns a copy of the append-only input log.
func (s *Session) Events() []InputEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InputEvent, len(s.events))
	copy(out, s.events)
	return out
}

// PositionStates reports the per-position mark for rendering: "", "correct",
// "incorrect" or "skipped".
func (s *Session) PositionStates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.marks))
	for i, m := range s.marks {
		switch m {
		case markCorrect:
			out[i] = "correct"
		case markIncorrect:
			out[i] = "incorrect"
		case markSkipped:
			out[i] = "skipped"
		}
	}
	return out
}

// LastSeen reports the time of the last interaction, used for expiry.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Touch refreshes the last interaction time.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
}
