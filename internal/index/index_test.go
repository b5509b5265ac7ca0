package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/memopad/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func checksumOf(t *testing.T, db *DB, name string) string {
	t.Helper()
	all, err := db.AllChecksums(context.Background())
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	return all[name]
}

func memo(name, title string, created time.Time, tags ...string) models.Memo {
	return models.Memo{
		MemoMetadata: models.MemoMetadata{
			Title:     title,
			Filename:  name,
			Category:  "work",
			Tags:      tags,
			CreatedAt: created,
			UpdatedAt: created,
			Size:      42,
		},
		Body:           "body of " + title,
		HasFrontmatter: true,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM memos`).Scan(&count); err != nil {
		t.Fatalf("memos table missing: %v", err)
	}
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestPutAndScan(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	created := time.Date(2025, 2, 3, 4, 5, 6, 7, time.UTC)

	if err := db.Put(ctx, memo("a.txt", "Alpha", created, "x", "y"), "cs-a"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	m := got[0]
	if m.Title != "Alpha" || m.Category != "work" || m.Body != "body of Alpha" || m.Size != 42 || !m.HasFrontmatter {
		t.Errorf("memo = %+v", m)
	}
	if len(m.Tags) != 2 || m.Tags[0] != "x" || m.Tags[1] != "y" {
		t.Errorf("tags = %v", m.Tags)
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", m.CreatedAt, created)
	}
	if cs := checksumOf(t, db, "a.txt"); cs != "cs-a" {
		t.Errorf("checksum = %q, want %q", cs, "cs-a")
	}
}

func TestPutUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	now := time.Now()
	_ = db.Put(ctx, memo("up.txt", "Old", now), "1")
	_ = db.Put(ctx, memo("up.txt", "New", now, "fresh"), "2")

	got, _ := db.Scan(ctx)
	if len(got) != 1 || got[0].Title != "New" {
		t.Fatalf("scan = %+v", got)
	}
	if got[0].Tags == nil || len(got[0].Tags) != 1 {
		t.Errorf("tags = %v", got[0].Tags)
	}
	if cs := checksumOf(t, db, "up.txt"); cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
}

func TestPutNilTags(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	m := memo("n.txt", "Nil", time.Now())
	m.Tags = nil
	_ = db.Put(ctx, m, "1")
	got, _ := db.Scan(ctx)
	if len(got) != 1 || got[0].Tags == nil {
		t.Errorf("expected empty non-nil tags, got %+v", got)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	_ = db.Put(ctx, memo("del.txt", "Del", time.Now()), "x")

	if err := db.Remove(ctx, "del.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := db.Remove(ctx, "del.txt"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
