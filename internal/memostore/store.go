// Package memostore maps human titles to memo files and answers list,
// search and filter queries over them.
//
// The filesystem is the source of truth. Without an Index every query
// re-reads the memo directory; with one, reads are served from the index
// while writes still go to disk first.
package memostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/memopad/internal/apperr"
	"github.com/starford/memopad/internal/models"
	"github.com/starford/memopad/internal/parser"
	"github.com/starford/memopad/internal/storage"
)

// Index is an optional read-side mirror of the memo directory.
type Index interface {
	// Scan returns every indexed memo, in any order.
	Scan(ctx context.Context) ([]models.Memo, error)
	Put(ctx context.Context, m models.Memo, checksum string) error
	Remove(ctx context.Context, filename string) error
}

// CreateInput carries the fields of a memo created with metadata.
type CreateInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

// Validate validates the create input.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.By(hasFilenameStem)),
		validation.Field(&in.Tags, validation.Each(validation.Required)),
	)
}

func hasFilenameStem(value interface{}) error {
	title, _ := value.(string)
	if URIStem(Sanitize(title)) == "" {
		return errors.New("must contain at least one filename-safe character")
	}
	return nil
}

// Option configures a Store.
type Option func(*Store)

// WithIndex serves reads from idx and mirrors every write into it.
func WithIndex(idx Index) Option {
	return func(s *Store) { s.index = idx }
}

// WithClock overrides the time source used for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for index mirroring failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements the memo operations on top of a storage.Provider.
type Store struct {
	fs     storage.Provider
	index  Index
	now    func() time.Time
	logger *slog.Logger
}

// New creates a new memo store.
func New(fs storage.Provider, opts ...Option) *Store {
	s := &Store{fs: fs, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the memo directory.
func (s *Store) Dir() string { return s.fs.Root() }

// EnsureDirectory creates the memo directory if it is missing.
func (s *Store) EnsureDirectory() error {
	return s.fs.EnsureDir()
}

// Decode builds a Memo from a file entry and its raw content. Metadata from a
// frontmatter block takes precedence over filesystem-derived values.
func Decode(e models.FileEntry, data []byte) models.Memo {
	res := parser.Parse(data)
	m := models.Memo{
		MemoMetadata: models.MemoMetadata{
			Title:     TitleFromFilename(e.Filename),
			Filename:  e.Filename,
			Tags:      []string{},
			CreatedAt: e.ModTime,
			UpdatedAt: e.ModTime,
			Size:      e.Size,
		},
		Body: res.Body,
	}
	fm := res.Frontmatter
	if fm == nil {
		return m
	}
	m.HasFrontmatter = true
	if fm.Title != "" {
		m.Title = fm.Title
	}
	m.Category = fm.Category
	if len(fm.Tags) > 0 {
		m.Tags = fm.Tags
	}
	if !fm.CreatedAt.IsZero() {
		m.CreatedAt = fm.CreatedAt
	}
	if !fm.UpdatedAt.IsZero() {
		m.UpdatedAt = fm.UpdatedAt
	}
	return m
}

// scan loads every memo, newest first. Ties on creation time are broken by
// filename so the order does not depend on directory enumeration.
func (s *Store) scan(ctx context.Context) ([]models.Memo, error) {
	var memos []models.Memo
	if s.index != nil {
		var err error
		if memos, err = s.index.Scan(ctx); err != nil {
			return nil, fmt.Errorf("memostore: index scan: %w", err)
		}
	} else {
		entries, err := s.fs.List()
		if err != nil {
			return nil, err
		}
		memos = make([]models.Memo, 0, len(entries))
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := s.fs.Read(e.Filename)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					// Deleted while scanning.
					continue
				}
				return nil, err
			}
			memos = append(memos, Decode(e, data))
		}
	}
	sort.SliceStable(memos, func(i, j int) bool {
		if !memos[i].CreatedAt.Equal(memos[j].CreatedAt) {
			return memos[i].CreatedAt.After(memos[j].CreatedAt)
		}
		return memos[i].Filename < memos[j].Filename
	})
	return memos, nil
}

func (s *Store) filter(ctx context.Context, keep func(models.Memo) bool) ([]models.MemoMetadata, error) {
	memos, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.MemoMetadata, 0, len(memos))
	for _, m := range memos {
		if keep(m) {
			out = append(out, m.MemoMetadata)
		}
	}
	return out, nil
}

// List returns metadata for every memo, newest first.
func (s *Store) List(ctx context.Context) ([]models.MemoMetadata, error) {
	return s.filter(ctx, func(models.Memo) bool { return true })
}

// Search returns memos whose title or body contains query, ignoring case.
func (s *Store) Search(ctx context.Context, query string) ([]models.MemoMetadata, error) {
	q := strings.ToLower(query)
	return s.filter(ctx, func(m models.Memo) bool {
		return strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Body), q)
	})
}

// ByCategory returns memos whose category equals category, ignoring case.
func (s *Store) ByCategory(ctx context.Context, category string) ([]models.MemoMetadata, error) {
	return s.filter(ctx, func(m models.Memo) bool {
		return m.Category != "" && strings.EqualFold(m.Category, category)
	})
}

// ByTag returns memos carrying tag, ignoring case.
func (s *Store) ByTag(ctx context.Context, tag string) ([]models.MemoMetadata, error) {
	return s.filter(ctx, func(m models.Memo) bool {
		for _, t := range m.Tags {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
		return false
	})
}

// Categories returns the distinct categories in use, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(m models.Memo) []string {
		if m.Category == "" {
			return nil
		}
		return []string{m.Category}
	})
}

// Tags returns the distinct tags in use, sorted.
func (s *Store) Tags(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(m models.Memo) []string { return m.Tags })
}

func (s *Store) distinct(ctx context.Context, values func(models.Memo) []string) ([]string, error) {
	memos, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range memos {
		for _, v := range values(m) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// FindByTitle resolves a title to a filename. The sanitized filename is tried
// first; otherwise the first memo (in List order) whose title contains title,
// ignoring case, wins.
func (s *Store) FindByTitle(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("memostore: empty title: %w", apperr.ErrNotFound)
	}
	filename := Sanitize(title)
	ok, err := s.fs.Exists(filename)
	if err != nil && !errors.Is(err, apperr.ErrInvalid) {
		return "", err
	}
	if ok {
		return filename, nil
	}

	memos, err := s.scan(ctx)
	if err != nil {
		return "", err
	}
	needle := strings.ToLower(title)
	for _, m := range memos {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			return m.Filename, nil
		}
	}
	return "", fmt.Errorf("memostore: memo %q: %w", title, apperr.ErrNotFound)
}

// Read resolves title and returns the parsed memo.
func (s *Store) Read(ctx context.Context, title string) (models.Memo, error) {
	filename, err := s.FindByTitle(ctx, title)
	if err != nil {
		return models.Memo{}, err
	}
	return s.ReadFile(ctx, filename)
}

// ReadFile returns the memo stored under filename.
func (s *Store) ReadFile(_ context.Context, filename string) (models.Memo, error) {
	entry, err := s.fs.Stat(filename)
	if err != nil {
		return models.Memo{}, err
	}
	data, err := s.fs.Read(filename)
	if err != nil {
		return models.Memo{}, err
	}
	return Decode(entry, data), nil
}

// ReadRaw returns the stored bytes of filename, frontmatter included.
func (s *Store) ReadRaw(_ context.Context, filename string) ([]byte, error) {
	return s.fs.Read(filename)
}

// Create stores body as a raw memo without metadata. A body that would
// itself parse as a metadata block is wrapped in one so it reads back
// unchanged.
func (s *Store) Create(ctx context.Context, title, body string) (string, error) {
	if err := (CreateInput{Title: title, Content: body}).Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	data := []byte(body)
	if parser.Parse(data).Frontmatter != nil {
		now := s.now().UTC()
		var err error
		data, err = parser.Serialize(&models.Frontmatter{Title: title, CreatedAt: now, UpdatedAt: now}, body)
		if err != nil {
			return "", err
		}
	}
	return s.write(ctx, Sanitize(title), data)
}

// CreateWithMetadata stores a memo with a frontmatter block holding title,
// category, tags and creation/update timestamps.
func (s *Store) CreateWithMetadata(ctx context.Context, in CreateInput) (string, error) {
	in.Tags = normalizeTags(in.Tags)
	in.Category = strings.TrimSpace(in.Category)
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	now := s.now().UTC()
	data, err := parser.Serialize(&models.Frontmatter{
		Title:     in.Title,
		Category:  in.Category,
		Tags:      in.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}, in.Content)
	if err != nil {
		return "", err
	}
	return s.write(ctx, Sanitize(in.Title), data)
}

func (s *Store) write(ctx context.Context, filename string, data []byte) (string, error) {
	if err := s.EnsureDirectory(); err != nil {
		return "", err
	}
	if err := s.fs.Create(filename, data); err != nil {
		return "", err
	}
	s.mirrorPut(ctx, filename, data)
	return filename, nil
}

// Delete resolves title and removes the memo file.
func (s *Store) Delete(ctx context.Context, title string) (string, error) {
	filename, err := s.FindByTitle(ctx, title)
	if err != nil {
		return "", err
	}
	if err := s.fs.Delete(filename); err != nil {
		return "", err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, filename); err != nil {
			s.logger.Warn("memostore: index remove failed",
				slog.String("filename", filename),
				slog.String("error", err.Error()))
		}
	}
	return filename, nil
}

// mirrorPut keeps the index current after a successful write. The file is
// already durable, so index failures are logged, not returned.
func (s *Store) mirrorPut(ctx context.Context, filename string, data []byte) {
	if s.index == nil {
		return
	}
	entry, err := s.fs.Stat(filename)
	if err == nil {
		err = s.index.Put(ctx, Decode(entry, data), storage.Checksum(data))
	}
	if err != nil {
		s.logger.Warn("memostore: index put failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
