package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/memopad/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after each observed memo change.
type EventCallback func(kind string, filename string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the memo directory and processes
// change events until ctx is cancelled. When db is nil only cb is invoked,
// which lets callers react to external edits without an index.
//
// Rename events delete the old name immediately and schedule a debounced
// Sync pass to pick up the new one.
func Watch(ctx context.Context, db MemoIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	if err := store.EnsureDir(); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", store.Root()))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind, name string) {
		if cb != nil {
			cb(kind, name)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if db != nil {
				if err := Sync(ctx, db, store, logger); err != nil {
					logger.Warn("reconcile: sync failed", slog.String("error", err.Error()))
				}
			}
			notify(EventUpdated, "")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, storage.Ext) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				if db != nil {
					if err := indexFile(ctx, db, store, name); err != nil {
						if !isGone(err) {
							logger.Warn("watcher: index failed", slog.String("filename", name), slog.String("error", err.Error()))
						}
						continue
					}
				}
				logger.Debug("watcher: indexed", slog.String("filename", name), slog.String("op", kind))
				notify(kind, name)

			case ev.Op&fsnotify.Remove != 0:
				if db != nil {
					if err := db.Remove(ctx, name); err != nil {
						logger.Warn("watcher: delete failed", slog.String("filename", name), slog.String("error", err.Error()))
						continue
					}
				}
				logger.Debug("watcher: deleted", slog.String("filename", name))
				notify(EventDeleted, name)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old name only; the new
				// name arrives as a Create if it stays in the directory.
				if db != nil {
					if err := db.Remove(ctx, name); err != nil {
						logger.Warn("watcher: rename delete failed", slog.String("filename", name), slog.String("error", err.Error()))
					}
				}
				notify(EventDeleted, name)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
