// Package storage defines the flat memo directory abstraction.
package storage

import "github.com/starford/memopad/internal/models"

// Provider is the interface for memo file operations. Names are bare
// filenames relative to the memo directory; subdirectories are not used.
type Provider interface {
	// Root returns the absolute path of the memo directory.
	Root() string
	// EnsureDir creates the memo directory (and parents) if missing.
	EnsureDir() error
	// List returns every regular file carrying the memo extension.
	List() ([]models.FileEntry, error)
	// Stat returns size and modification time of a single memo file.
	Stat(name string) (models.FileEntry, error)
	// Exists reports whether a memo file is present.
	Exists(name string) (bool, error)
	// Read returns the raw bytes of a memo file.
	Read(name string) ([]byte, error)
	// Create writes a new file and fails with apperr.ErrAlreadyExists if
	// one is already present. Existing content is never touched.
	Create(name string, content []byte) error
	// Delete removes a memo file; apperr.ErrNotFound if absent.
	Delete(name string) error
}
