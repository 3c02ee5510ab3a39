// Package snippet extracts typable snippets from source files.
package snippet

import (
	"errors"
	"math/rand"
	"strings"
)

// ErrNoContent is returned when a file has no non-blank lines to type.
var ErrNoContent = errors.New("file has no typable content")

// Selector truncates file content to a line budget, starting from a randomly
// chosen non-blank line.
type Selector struct {
	maxLines int
	rng      *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand injects a deterministic random source, used by tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

func NewSelector(maxLines int, opts ...Option) *Selector {
	if maxLines <= 0 {
		maxLines = 20
	}
	s := &Selector{maxLines: maxLines}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns a snippet of at most the configured number of lines. Line
// endings are normalized to \n and trailing blank lines are trimmed.
func (s *Selector) Select(content string) (string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	starts := candidateStarts(lines, s.maxLines)
	if len(starts) == 0 {
		return "", ErrNoContent
	}

	start := starts[0]
	if s.rng != nil {
		start = starts[s.rng.Intn(len(starts))]
	} else if len(starts) > 1 {
		start = starts[rand.Intn(len(starts))]
	}

	end := start + s.maxLines
	if end > len(lines) {
		end = len(lines)
	}
	window := lines[start:end]

	// Trim trailing blank lines so the session never ends on empty input.
	for len(window) > 0 && window[len(window)-1] == "" {
		window = window[:len(window)-1]
	}
	if len(window) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(window, "\n"), nil
}

// candidateStarts lists non-blank lines that leave at least a third of the
// budget worth of content after them, so a random pick near the end of the
// file still yields a useful snippet.
func candidateStarts(lines []string, maxLines int) []int {
	minTail := maxLines / 3
	if minTail < 1 {
		minTail = 1
	}
	var starts []int
	for i, line := range lines {
		if line == "" {
			continue
		}
		if nonBlankAfter(lines, i) >= minTail {
			starts = append(starts, i)
		}
	}
	// Files shorter than the tail requirement still get their first non-blank
	// line as the sole candidate.
	if len(starts) == 0 {
		for i, line := range lines {
			if line != "" {
				return []int{i}
			}
		}
	}
	return starts
}

func nonBlankAfter(lines []string, from int) int {
	n := 0
	for _, line := range lines[from:] {
		if line != "" {
			n++
		}
	}
	return n
}
