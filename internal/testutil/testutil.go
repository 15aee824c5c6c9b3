// Package testutil opens migrated throwaway databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	dbfs "github.com/garnizeh/innohub/db"
	"github.com/garnizeh/innohub/internal/db"
	"github.com/garnizeh/innohub/internal/repository/sqlite"
)

// NewDB returns a migrated database in a temp dir that is closed on cleanup.
// Each call gets its own file so tests never see each other's rows.
func NewDB(t testing.TB) *db.DB {
	t.Helper()
	ctx := context.Background()

	d, err := db.New(ctx, filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

// NewRepo is NewDB wrapped in the SQLite repositories.
func NewRepo(t testing.TB) *sqlite.SQLiteRepo {
	t.Helper()
	return sqlite.New(NewDB(t), nil)
}

// NewRepoOn wraps an existing database, for tests that also query it directly.
func NewRepoOn(d *db.DB) *sqlite.SQLiteRepo {
	return sqlite.New(d, nil)
}
