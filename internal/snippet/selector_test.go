package snippet_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typespeed/typespeed/internal/snippet"
)

func TestSelect_EmptyContent(t *testing.T) {
	s := snippet.NewSelector(10)
	_, err := s.Select("")
	assert.ErrorIs(t, err, snippet.ErrNoContent)
}

func TestSelect_OnlyBlankLines(t *testing.T) {
	s := snippet.NewSelector(10)
	_, err := s.Select("\n\n   \n\t\n")
	assert.ErrorIs(t, err, snippet.ErrNoContent)
}

func TestSelect_NormalizesLineEndings(t *testing.T) {
	s := snippet.NewSelector(10)

	got, err := s.Select("a\r\nb\r\nc")
	require.NoError(t, err)
	assert.NotContains(t, got, "\r")
}

func TestSelect_TrimsTrailingWhitespace(t *testing.T) {
	s := snippet.NewSelector(10)

	got, err := s.Select("func main() {   \n}\t\n")
	require.NoError(t, err)
	for _, line := range strings.Split(got, "\n") {
		assert.Equal(t, strings.TrimRight(line, " \t"), line)
	}
}

func TestSelect_RespectsLineBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("line content\n")
	}

	s := snippet.NewSelector(5, snippet.WithRand(rand.New(rand.NewSource(1))))
	got, err := s.Select(b.String())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(strings.Split(got, "\n")), 5)
}

func TestSelect_NeverEndsOnBlankLine(t *testing.T) {
	content := "a\nb\n\n\n\n\n\n"
	s := snippet.NewSelector(6, snippet.WithRand(rand.New(rand.NewSource(3))))

	got, err := s.Select(content)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	assert.NotEqual(t, "", lines[len(lines)-1])
}

func TestSelect_ShortFileUsesFirstNonBlankLine(t *testing.T) {
	s := snippet.NewSelector(30)

	got, err := s.Select("\n\nonly line\n")
	require.NoError(t, err)
	assert.Equal(t, "only line", got)
}

func TestSelect_DeterministicWithSeed(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("line\n")
	}
	content := b.String()

	first, err := snippet.NewSelector(5, snippet.WithRand(rand.New(rand.NewSource(42)))).Select(content)
	require.NoError(t, err)
	second, err := snippet.NewSelector(5, snippet.WithRand(rand.New(rand.NewSource(42)))).Select(content)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
