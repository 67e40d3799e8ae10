package testutil

import (
	"testing"

	"eventmeet/internal/database"
	"eventmeet/internal/meet"
)

// NewTestStore creates an in-memory store with all migrations applied.
// The store is closed when the test finishes.
func NewTestStore(t testing.TB, clock meet.Clock) *database.SQLiteStore {
	t.Helper()

	s, err := database.NewSQLiteStore(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}
