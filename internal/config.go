package internal

import (
	"errors"
	"io"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/memopad/internal/index"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Memos MemosConfig       `yaml:"memos"`
	Index IndexConfig       `yaml:"index"`
	Watch WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Memos.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	// Without the watcher, writes from other processes never reach the index.
	return validation.ValidateStruct(c,
		validation.Field(&c.Watch, validation.When(c.Index.Enabled, validation.By(requireWatch))),
	)
}

func requireWatch(value any) error {
	if w, _ := value.(WatchConfig); !w.Enabled {
		return errors.New("must be enabled when index.enabled is true")
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// NewLogger builds the application logger writing to w.
func (c *ApplicationConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// MemosConfig holds the path to the memo directory.
type MemosConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the memo configuration.
func (c *MemosConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// IndexConfig holds the optional SQLite index configuration.
//
// Path may be ":memory:" to keep the index in process memory; it is
// rebuilt from the memo directory on every start either way.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// WatchConfig controls the memo directory watcher.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
		},
		Memos: MemosConfig{
			Dir: "./memos",
		},
		Index: IndexConfig{
			Enabled: false,
			Path:    index.MemoryPath,
		},
		Watch: WatchConfig{
			Enabled: false,
		},
	}
}
