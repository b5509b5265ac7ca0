// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/memopad/internal/index"
	"github.com/starford/memopad/internal/mcpserver"
	"github.com/starford/memopad/internal/memostore"
	"github.com/starford/memopad/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{
		in:        os.Stdin,
		out:       os.Stdout,
		logOutput: os.Stderr,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := cfg.App.NewLogger(app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("memos_dir", cfg.Memos.Dir),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.String("index_path", cfg.Index.Path),
		slog.Bool("watch_enabled", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage.
	fs, err := storage.NewFS(cfg.Memos.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := fs.EnsureDir(); err != nil {
		return fmt.Errorf("create memo dir: %w", err)
	}

	storeOpts := []memostore.Option{memostore.WithLogger(logger)}

	// Initialize the optional SQLite index.
	var db *index.DB
	if cfg.Index.Enabled {
		db, err = index.Open(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()

		if err := index.Sync(ctx, db, fs, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		if n, err := db.Count(ctx); err == nil {
			logger.Info("Index ready", slog.Int("memos", n))
		}
		storeOpts = append(storeOpts, memostore.WithIndex(db))
	}

	store := memostore.New(fs, storeOpts...)
	srv := mcpserver.New(store, logger)
	if err := srv.RefreshResources(ctx); err != nil {
		logger.Warn("initial resource refresh failed", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			onChange := func(kind, filename string) {
				logger.Debug("memo changed", slog.String("kind", kind), slog.String("filename", filename))
				if err := srv.RefreshResources(gCtx); err != nil {
					logger.Warn("resource refresh failed", slog.String("error", err.Error()))
				}
			}
			// An untyped nil keeps the watcher in notify-only mode.
			var idx index.MemoIndex
			if db != nil {
				idx = db
			}
			if err := index.Watch(gCtx, idx, fs, logger, onChange); err != nil {
				return fmt.Errorf("watcher: %w", err)
			}
			return nil
		})
	}

	// Serve MCP over stdio. The client closing stdin ends the process.
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server listening on stdio")
		if err := srv.Listen(gCtx, app.in, app.out); err != nil && gCtx.Err() == nil {
			return fmt.Errorf("stdio server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
