package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/memopad/internal/models"
)

// Put inserts or replaces one memo.
func (db *DB) Put(ctx context.Context, m models.Memo, checksum string) error {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("index: encode tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO memos (filename, title, category, tags, body, has_frontmatter, size, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			title           = excluded.title,
			category        = excluded.category,
			tags            = excluded.tags,
			body            = excluded.body,
			has_frontmatter = excluded.has_frontmatter,
			size            = excluded.size,
			checksum        = excluded.checksum,
			created_at      = excluded.created_at,
			updated_at      = excluded.updated_at
	`, m.Filename, m.Title, m.Category, string(tagsJSON), m.Body, m.HasFrontmatter, m.Size, checksum,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: put %s: %w", m.Filename, err)
	}
	return nil
}

// Remove deletes one memo; removing an absent memo is not an error.
func (db *DB) Remove(ctx context.Context, filename string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM memos WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("index: remove %s: %w", filename, err)
	}
	return nil
}

// Scan returns every indexed memo.
func (db *DB) Scan(ctx context.Context) ([]models.Memo, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT filename, title, category, tags, body, has_frontmatter, size, created_at, updated_at
		FROM memos
	`)
	if err != nil {
		return nil, fmt.Errorf("index: scan: %w", err)
	}
	defer rows.Close()

	var out []models.Memo
	for rows.Next() {
		var (
			m        models.Memo
			tagsJSON string
		)
		if err := rows.Scan(&m.Filename, &m.Title, &m.Category, &tagsJSON, &m.Body,
			&m.HasFrontmatter, &m.Size, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
			return nil, fmt.Errorf("index: decode tags for %s: %w", m.Filename, err)
		}
		if m.Tags == nil {
			m.Tags = []string{}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AllChecksums returns filename -> checksum for every indexed memo.
func (db *DB) AllChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT filename, checksum FROM memos`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed memos.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM memos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
