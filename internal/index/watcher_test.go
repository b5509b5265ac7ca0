package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, store, db := syncTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, discardLogger(), func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hello"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "skip.md"), []byte("hello"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return checksumOf(t, db, "new.txt") != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.txt" {
				return true
			}
		}
		return false
	}, "expected created:new.txt callback")

	if cs := checksumOf(t, db, "skip.md"); cs != "" {
		t.Error("non-memo file indexed")
	}
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, db := syncTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "del.txt"), []byte("delete me"), 0o644)
	_ = Sync(context.Background(), db, store, discardLogger())
	if checksumOf(t, db, "del.txt") == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, discardLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.txt"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return checksumOf(t, db, "del.txt") == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := syncTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "old.txt"), []byte("rename"), 0o644)
	_ = Sync(context.Background(), db, store, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, discardLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.txt"), filepath.Join(dir, "renamed.txt"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return checksumOf(t, db, "old.txt") == "" && checksumOf(t, db, "renamed.txt") != ""
	}, "rename reconciliation failed: old name should be removed and new name indexed")
}

func TestWatcher_WithoutIndexOnlyNotifies(t *testing.T) {
	dir, store, _ := syncTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 8)
	go Watch(ctx, nil, store, discardLogger(), func(kind, name string) {
		got <- kind + ":" + name
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "n.txt"), []byte("x"), 0o644)

	select {
	case ev := <-got:
		if ev != "created:n.txt" && ev != "updated:n.txt" {
			t.Errorf("event = %q", ev)
		}
	case <-time.After(5 * time.Second):
		t.Error("no callback without index")
	}
}
