package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/memopad/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func syncTestEnv(t *testing.T) (string, *storage.FS, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, testDB(t)
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	ctx := context.Background()
	dir, store, db := syncTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "raw.txt"), []byte("plain body"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "meta.txt"), []byte("---\ntitle: Meta Memo\ncreatedAt: 2025-01-15T10:30:00Z\ntags: [a]\n---\nbody"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("x"), 0o644)

	if err := Sync(ctx, db, store, discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	memos, _ := db.Scan(ctx)
	if len(memos) != 2 {
		t.Fatalf("indexed %d memos, want 2", len(memos))
	}
	byName := map[string]string{}
	for _, m := range memos {
		byName[m.Filename] = m.Title
	}
	if byName["raw.txt"] != "raw" || byName["meta.txt"] != "Meta Memo" {
		t.Errorf("titles = %v", byName)
	}

	_ = os.Remove(filepath.Join(dir, "raw.txt"))
	if err := Sync(ctx, db, store, discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs := checksumOf(t, db, "raw.txt"); cs != "" {
		t.Error("stale memo still indexed")
	}
}

func TestSync_SkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	dir, store, db := syncTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte("same"), 0o644)
	_ = Sync(ctx, db, store, discardLogger())

	// Tamper with the indexed title; an unchanged checksum must leave it alone.
	if _, err := db.conn.Exec(`UPDATE memos SET title = 'tampered' WHERE filename = 'a.txt'`); err != nil {
		t.Fatal(err)
	}
	_ = Sync(ctx, db, store, discardLogger())
	memos, _ := db.Scan(ctx)
	if len(memos) != 1 || memos[0].Title != "tampered" {
		t.Errorf("unchanged file was re-indexed: %+v", memos)
	}

	_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0o644)
	_ = Sync(ctx, db, store, discardLogger())
	memos, _ = db.Scan(ctx)
	if len(memos) != 1 || memos[0].Title != "a" {
		t.Errorf("changed file not re-indexed: %+v", memos)
	}
}
