package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/memopad/internal"
	pkgconfig "github.com/starford/memopad/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if dir := cmd.String("memos-dir"); dir != "" {
		cfg.Memos.Dir = dir
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "memopad",
		Usage:  "MCP server for flat-file memos with arithmetic demo tools, served over stdio",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "memos-dir",
				Usage:   "Directory holding memo files (overrides memos.dir)",
				Sources: cli.EnvVars("MEMOS_DIR"),
			},
		},
	}

	// stdout carries the protocol, so failures are reported on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
