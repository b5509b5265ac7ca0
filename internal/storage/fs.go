package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/memopad/internal/apperr"
	"github.com/starford/memopad/internal/models"
)

// Ext is the extension every memo file carries; other files are ignored.
const Ext = ".txt"

// FS implements Provider backed by one local directory.
type FS struct {
	root string // absolute path to the memo directory
}

// NewFS creates a new FS provider rooted at the given directory. The
// directory is created lazily by EnsureDir; an existing non-directory at
// root is rejected.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute memo directory.
func (f *FS) Root() string { return f.root }

// EnsureDir is idempotent.
func (f *FS) EnsureDir() error {
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w: %w", apperr.ErrIO, err)
	}
	return nil
}

// safePath resolves a bare filename inside root and rejects anything that
// would leave it.
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("storage: invalid memo filename %q: %w", name, apperr.ErrInvalid)
	}
	return filepath.Join(f.root, name), nil
}

// List enumerates the memo directory in directory order. A missing
// directory yields an empty list.
func (f *FS) List() ([]models.FileEntry, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: list: %w: %w", apperr.ErrIO, err)
	}
	out := make([]models.FileEntry, 0, len(entries))
	for _, d := range entries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), Ext) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Removed between ReadDir and Info.
				continue
			}
			return nil, fmt.Errorf("storage: stat %s: %w: %w", d.Name(), apperr.ErrIO, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		out = append(out, models.FileEntry{
			Filename: d.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}
	return out, nil
}

// Stat returns the entry for one memo file.
func (f *FS) Stat(name string) (models.FileEntry, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return models.FileEntry{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.FileEntry{}, wrapErr("stat", name, err)
	}
	return models.FileEntry{Filename: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Exists reports whether name is present.
func (f *FS) Exists(name string) (bool, error) {
	_, err := f.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperr.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Read returns the raw bytes of a memo file.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, wrapErr("read", name, err)
	}
	return data, nil
}

// Create writes content to a temp file (fsync'd) and publishes it with a
// hard link, which fails atomically when the target exists.
func (f *FS) Create(name string, content []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := f.EnsureDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".memopad-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w: %w", apperr.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w: %w", apperr.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w: %w", apperr.ErrIO, err)
	}

	err = os.Link(tmpName, abs)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("storage: create %s: %w", name, apperr.ErrAlreadyExists)
	default:
		// Filesystems without hard links fall back to an exclusive open.
		return f.createExclusive(abs, name, content)
	}
}

func (f *FS) createExclusive(abs, name string, content []byte) error {
	fh, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("storage: create %s: %w", name, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("storage: create %s: %w: %w", name, apperr.ErrIO, err)
	}
	if _, err := fh.Write(content); err != nil {
		_ = fh.Close()
		_ = os.Remove(abs)
		return fmt.Errorf("storage: write %s: %w: %w", name, apperr.ErrIO, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w: %w", name, apperr.ErrIO, err)
	}
	return nil
}

// Delete removes a memo file.
func (f *FS) Delete(name string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return wrapErr("delete", name, err)
	}
	return nil
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func wrapErr(op, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: %s %s: %w", op, name, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: %s %s: %w: %w", op, name, apperr.ErrIO, err)
}

var _ Provider = (*FS)(nil)
