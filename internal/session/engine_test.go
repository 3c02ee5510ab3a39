package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typespeed/typespeed/internal/session"
)

// fakeClock drives session time deterministically.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newSession(t *testing.T, snippet string, opts ...session.Option) *session.Session {
	t.Helper()
	s, err := session.New("test-session", 1, snippet, opts...)
	require.NoError(t, err)
	return s
}

// typeString feeds every rune of text as a keystroke.
func typeString(t *testing.T, s *session.Session, text string) session.Metrics {
	t.Helper()
	var m session.Metrics
	var err error
	for _, r := range text {
		m, err = s.Keystroke(r)
		require.NoError(t, err)
	}
	return m
}

func TestNew_EmptySnippet(t *testing.T) {
	_, err := session.New("id", 1, "")
	assert.ErrorIs(t, err, session.ErrEmptySnippet)
}

func TestNew_OnlyIndentation(t *testing.T) {
	_, err := session.New("id", 1, "   \t  ")
	assert.ErrorIs(t, err, session.ErrEmptySnippet)
}

func TestNew_SkipsLeadingIndentation(t *testing.T) {
	s := newSession(t, "\tfmt.Println()")

	assert.Equal(t, session.StateIdle, s.State())
	assert.Equal(t, 1, s.Cursor(), "cursor should sit past the leading tab")
	assert.Equal(t, "skipped", s.PositionStates()[0])
}

func TestKeystroke_ActivatesSession(t *testing.T) {
	s := newSession(t, "ab")

	m, err := s.Keystroke('a')
	require.NoError(t, err)
	assert.Equal(t, "active", m.State)
	assert.Equal(t, 1, m.Cursor)
}

func TestKeystroke_MismatchAdvancesCursor(t *testing.T) {
	s := newSession(t, "ab")

	m, err := s.Keystroke('x')
	require.NoError(t, err)
	assert.Equal(t, 1, m.Cursor, "a wrong keystroke still advances")
	assert.Equal(t, 1, m.Incorrect)
	assert.Equal(t, "incorrect", s.PositionStates()[0])
}

func TestKeystroke_SkipsIndentationAfterNewline(t *testing.T) {
	s := newSession(t, "a\n\t\tb")

	typeString(t, s, "a\n")

	assert.Equal(t, 4, s.Cursor(), "both tabs after the newline should be skipped")
	states := s.PositionStates()
	assert.Equal(t, "skipped", states[2])
	assert.Equal(t, "skipped", states[3])
}

func TestKeystroke_CompletesAtFinalPosition(t *testing.T) {
	s := newSession(t, "ab")

	m := typeString(t, s, "ab")
	assert.Equal(t, "completed", m.State)
	assert.Equal(t, m.Length, m.Cursor)

	_, err := s.Keystroke('c')
	assert.ErrorIs(t, err, session.ErrCompleted)
}

func TestKeystroke_TrailingIndentationCompletes(t *testing.T) {
	// The last typable char sits before skipped positions. Typing it must
	// skip through to the end and complete.
	s := newSession(t, "a\n\t")

	m := typeString(t, s, "a\n")
	assert.Equal(t, "completed", m.State)
	assert.Equal(t, 3, m.Cursor)
}

func TestBackspace_IdleIsNoop(t *testing.T) {
	s := newSession(t, "ab")

	_, moved := s.Backspace()
	assert.False(t, moved)
	assert.Equal(t, 0, s.Cursor())
}

func TestBackspace_ClearsMark(t *testing.T) {
	s := newSession(t, "ab")

	typeString(t, s, "x")
	require.Equal(t, "incorrect", s.PositionStates()[0])

	m, moved := s.Backspace()
	assert.True(t, moved)
	assert.Equal(t, 0, m.Cursor)
	assert.Equal(t, "", s.PositionStates()[0])
	assert.Equal(t, 0, m.Uncorrected, "cleared error no longer counts as uncorrected")
}

func TestBackspace_StepsOverSkippedRun(t *testing.T) {
	s := newSession(t, "a\n\tb")

	typeString(t, s, "a\n")
	require.Equal(t, 3, s.Cursor())

	m, moved := s.Backspace()
	assert.True(t, moved)
	assert.Equal(t, 1, m.Cursor, "backspace clears the skipped tab and the newline")
	assert.Equal(t, "", s.PositionStates()[1])
	assert.Equal(t, "", s.PositionStates()[2])
}

func TestBackspace_StrictlyDecreasesCursor(t *testing.T) {
	s := newSession(t, "a\n\tbc")
	typeString(t, s, "a\nb")

	last := s.Cursor()
	for {
		m, moved := s.Backspace()
		if !moved {
			break
		}
		assert.Less(t, m.Cursor, last)
		last = m.Cursor
	}
	assert.GreaterOrEqual(t, last, 0)
}

func TestBackspace_CompletedIsNoop(t *testing.T) {
	s := newSession(t, "ab")
	typeString(t, s, "ab")

	_, moved := s.Backspace()
	assert.False(t, moved)
}

func TestReset_ReturnsToInitialState(t *testing.T) {
	s := newSession(t, "\tab")
	typeString(t, s, "ax")

	s.Reset()

	assert.Equal(t, session.StateIdle, s.State())
	assert.Equal(t, 1, s.Cursor(), "leading indentation is skipped again")
	m := s.Metrics()
	assert.Equal(t, 0, m.CharsTyped)
	assert.Equal(t, int64(0), m.ElapsedMs)
}

func TestMetrics_IdleIsZero(t *testing.T) {
	s := newSession(t, "abc")

	m := s.Metrics()
	assert.Equal(t, "idle", m.State)
	assert.Zero(t, m.GrossWPM)
	assert.Zero(t, m.NetWPM)
	assert.Zero(t, m.BurstWPM)
	assert.Zero(t, m.Accuracy)
}

func TestMetrics_GrossWPM(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, "hello world!", session.WithClock(clock.Now))

	// 10 chars over one minute: 10/5 = 2 WPM gross.
	for i, r := range "hello worl" {
		if i > 0 {
			clock.Advance(time.Minute / 9)
		}
		_, err := s.Keystroke(r)
		require.NoError(t, err)
	}

	m := s.Metrics()
	assert.InDelta(t, 2.0, m.GrossWPM, 0.01)
	assert.InDelta(t, 100.0, m.Accuracy, 0.001)
}

func TestMetrics_NetWPMClampedToZero(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, "abcdef", session.WithClock(clock.Now))

	// All wrong: uncorrected errors per minute dwarf the gross rate.
	for i, r := range "xxxxx" {
		if i > 0 {
			clock.Advance(10 * time.Second)
		}
		_, err := s.Keystroke(r)
		require.NoError(t, err)
	}

	m := s.Metrics()
	assert.Equal(t, 0.0, m.NetWPM)
	assert.GreaterOrEqual(t, m.NetWPM, 0.0)
}

func TestMetrics_AccuracyCountsCorrectedErrors(t *testing.T) {
	s := newSession(t, "ab")

	typeString(t, s, "x") // wrong
	s.Backspace()
	typeString(t, s, "a") // corrected

	m := s.Metrics()
	assert.Equal(t, 2, m.CharsTyped)
	assert.Equal(t, 1, m.Incorrect, "the original error stays in the log")
	assert.Equal(t, 0, m.Uncorrected)
	assert.InDelta(t, 50.0, m.Accuracy, 0.001)
}

func TestMetrics_AccuracyWithinBounds(t *testing.T) {
	s := newSession(t, "abcd")
	typeString(t, s, "axcd")

	m := s.Metrics()
	assert.GreaterOrEqual(t, m.Accuracy, 0.0)
	assert.LessOrEqual(t, m.Accuracy, 100.0)
}

func TestMetrics_BurstPeaksOnFastStretch(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, "aaaaaaaaaabbbbbbbbbb", session.WithClock(clock.Now))

	// Slow stretch: one char per two seconds.
	for _, r := range "aaaaaaaaaa" {
		_, err := s.Keystroke(r)
		require.NoError(t, err)
		clock.Advance(2 * time.Second)
	}
	slow := s.Metrics().BurstWPM

	// Fast stretch: ten chars inside one window.
	for _, r := range "bbbbbbbbb" {
		clock.Advance(500 * time.Millisecond)
		_, err := s.Keystroke(r)
		require.NoError(t, err)
	}

	m := s.Metrics()
	assert.Greater(t, m.BurstWPM, slow, "burst should pick up the fast stretch")
	assert.GreaterOrEqual(t, m.BurstWPM, m.GrossWPM)
}

func TestMetrics_BurstFirstKeystrokeNotAbsurd(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, "abc", session.WithClock(clock.Now))

	m, err := s.Keystroke('a')
	require.NoError(t, err)
	// One char over the minimum one-second span: (1/5)/(1/60) = 12 WPM.
	assert.LessOrEqual(t, m.BurstWPM, 12.01)
}

func TestRecord_OnlyWhenCompleted(t *testing.T) {
	s := newSession(t, "ab")
	typeString(t, s, "a")

	_, ok := s.Record()
	assert.False(t, ok)
}

func TestRecord_CountsCorrections(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, "ab", session.WithClock(clock.Now))

	typeString(t, s, "x")
	clock.Advance(time.Second)
	s.Backspace()
	typeString(t, s, "a")
	clock.Advance(time.Second)
	typeString(t, s, "b")

	rec, ok := s.Record()
	require.True(t, ok)
	assert.Equal(t, 3, rec.CharsTyped)
	assert.Equal(t, 1, rec.Errors)
	assert.Equal(t, 1, rec.Corrections, "one position was re-typed")
	assert.Equal(t, int64(2000), rec.DurationMs)
}

func TestCursor_AlwaysWithinBounds(t *testing.T) {
	s := newSession(t, "\tab\n\tcd")

	inputs := []rune{'a', 'x', 'b', '\n', 'c'}
	for _, r := range inputs {
		m, err := s.Keystroke(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.Cursor, 0)
		assert.LessOrEqual(t, m.Cursor, m.Length)
	}
	for i := 0; i < 20; i++ {
		m, _ := s.Backspace()
		assert.GreaterOrEqual(t, m.Cursor, 0)
		assert.LessOrEqual(t, m.Cursor, m.Length)
	}
}
