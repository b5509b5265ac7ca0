// Package testutil provides shared test helpers for setting up memo
// directories, stores and index databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/memopad/internal/index"
	"github.com/starford/memopad/internal/memostore"
	"github.com/starford/memopad/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "memopad-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestMemoDir creates a temporary memo directory with a storage provider.
func TestMemoDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestStore returns a memo store over a fresh temporary directory.
func TestStore(t *testing.T, opts ...memostore.Option) (string, *memostore.Store) {
	t.Helper()
	dir, fs := TestMemoDir(t)
	return dir, memostore.New(fs, opts...)
}

// WriteMemo writes a memo file directly, bypassing the store.
func WriteMemo(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
