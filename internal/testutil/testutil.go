// Package testutil provides helpers shared across test suites.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/typespeed/typespeed/internal/db"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// It is closed automatically when the test finishes.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	t.Helper()
	require.NoError(t, closer.Close())
}
