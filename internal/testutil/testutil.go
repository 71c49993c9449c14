// Package testutil provides shared test helpers for setting up stores and shell sessions.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/notesh/internal/shell"
	"github.com/starford/notesh/internal/store"
)

// FixedTime is the clock value used by TestSession.
var FixedTime = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T, opts ...store.Option) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notesh-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSession creates a shell session over a fresh store with a fixed clock
// and a discarded log.
func TestSession(t *testing.T, opts ...shell.SessionOption) (*shell.Session, *store.DB) {
	t.Helper()
	db := TestStore(t)
	d := shell.NewDispatcher(db,
		shell.WithClock(func() time.Time { return FixedTime }),
		shell.WithVersion("test"),
	)
	opts = append([]shell.SessionOption{shell.WithLogger(DiscardLogger())}, opts...)
	return shell.NewSession(d, opts...), db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
