package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-scheduler/internal/persistence/sqlite"
	"github.com/example/room-scheduler/internal/persistence/sqlite/migration"
)

// NewSQLiteStore opens a migrated store on a file in a temporary directory.
// The store is closed when the test ends.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()
	return OpenSQLiteStore(tb, filepath.Join(tb.TempDir(), "roomsched.db"))
}

// OpenSQLiteStore opens path, so two stores in one test can share a database file.
func OpenSQLiteStore(tb testing.TB, path string) *sqlite.Store {
	tb.Helper()
	store, err := sqlite.Open(context.Background(), migration.DefaultSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("open sqlite store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
