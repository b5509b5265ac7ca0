// Package models defines the domain types for memopad.
package models

import "time"

// Memo is a single stored document together with its parsed metadata.
type Memo struct {
	MemoMetadata
	Body string `json:"body"`
	// HasFrontmatter reports whether the file carried a metadata block.
	HasFrontmatter bool `json:"has_frontmatter"`
}

// MemoMetadata is the lightweight representation returned by list and filter operations.
type MemoMetadata struct {
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Size      int64     `json:"size"`
}

// Frontmatter is the metadata block stored at the top of a memo file.
type Frontmatter struct {
	Title     string    `yaml:"title"`
	Category  string    `yaml:"category,omitempty"`
	Tags      []string  `yaml:"tags,omitempty"`
	CreatedAt time.Time `yaml:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// FileEntry describes one memo file as seen by the storage layer.
type FileEntry struct {
	Filename string
	Size     int64
	ModTime  time.Time
}
