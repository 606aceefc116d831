// Package testutil provides shared test helpers for setting up stores and
// sample data.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/islandworks/miyako-poi/internal/seed"
	"github.com/islandworks/miyako-poi/internal/store"
)

// TestStore creates a temporary SQLite item store that is automatically
// cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	f, err := os.CreateTemp("", "miyako-poi-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := store.Open(f.Name(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeededStore creates a temporary store preloaded with the bundled sample
// venues.
func SeededStore(t *testing.T) *store.DB {
	t.Helper()
	db := TestStore(t)
	if _, err := seed.Load(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}
