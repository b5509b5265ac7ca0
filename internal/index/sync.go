package index

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/memopad/internal/apperr"
	"github.com/starford/memopad/internal/memostore"
	"github.com/starford/memopad/internal/storage"
)

// Sync walks the memo directory and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(ctx context.Context, db MemoIndex, store storage.Provider, logger *slog.Logger) error {
	entries, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		disk[e.Filename] = struct{}{}

		data, err := store.Read(e.Filename)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("filename", e.Filename), slog.String("error", err.Error()))
			continue
		}
		cs := storage.Checksum(data)
		if checksums[e.Filename] == cs {
			continue
		}
		if err := db.Put(ctx, memostore.Decode(e, data), cs); err != nil {
			logger.Warn("sync: index failed", slog.String("filename", e.Filename), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("filename", e.Filename))
		}
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.Remove(ctx, name); err != nil {
				logger.Warn("sync: delete failed", slog.String("filename", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("filename", name))
			}
		}
	}

	return nil
}

// indexFile reads one memo from disk and upserts it.
func indexFile(ctx context.Context, db MemoIndex, store storage.Provider, name string) error {
	entry, err := store.Stat(name)
	if err != nil {
		return err
	}
	data, err := store.Read(name)
	if err != nil {
		return err
	}
	return db.Put(ctx, memostore.Decode(entry, data), storage.Checksum(data))
}

func isGone(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
