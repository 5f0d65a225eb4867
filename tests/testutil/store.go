package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/fleet-notify/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Seed inserts records and returns them as stored.
func Seed(t *testing.T, s store.NotificationStore, records ...store.Record) []store.Record {
	t.Helper()

	out := make([]store.Record, 0, len(records))
	for _, r := range records {
		created, err := s.CreateNotification(context.Background(), r)
		if err != nil {
			t.Fatalf("seeding notification %q: %v", r.Title, err)
		}
		out = append(out, created)
	}
	return out
}

// FixedClock returns a clock stuck at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
