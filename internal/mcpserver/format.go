package mcpserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/memopad/internal/apperr"
	"github.com/starford/memopad/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

// entryFields selects which optional lines a memo listing shows.
type entryFields struct {
	category bool
	size     bool
}

func writeEntry(b *strings.Builder, m models.MemoMetadata, f entryFields) {
	fmt.Fprintf(b, "📝 %s\n", m.Title)
	fmt.Fprintf(b, "   Created: %s\n", formatTime(m.CreatedAt))
	if f.category && m.Category != "" {
		fmt.Fprintf(b, "   Category: %s\n", m.Category)
	}
	if len(m.Tags) > 0 {
		fmt.Fprintf(b, "   Tags: %s\n", strings.Join(m.Tags, ", "))
	}
	if f.size {
		fmt.Fprintf(b, "   Size: %d bytes\n", m.Size)
	}
	b.WriteString("\n")
}

func formatList(header string, memos []models.MemoMetadata, f entryFields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n\n", header, len(memos))
	for _, m := range memos {
		writeEntry(&b, m, f)
	}
	return b.String()
}

func formatMemo(m models.Memo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 %s\n", m.Title)
	if !m.HasFrontmatter {
		b.WriteString("\n")
		b.WriteString(m.Body)
		return b.String()
	}
	if m.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", m.Category)
	}
	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintf(&b, "Created: %s\n", formatTime(m.CreatedAt))
	fmt.Fprintf(&b, "Updated: %s\n", formatTime(m.UpdatedAt))
	b.WriteString("\n---\n\n")
	b.WriteString(m.Body)
	return b.String()
}

// formatCounts renders names with the number of memos carrying each.
func formatCounts(header, icon string, names []string, count func(string) int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n\n", header, len(names))
	for _, n := range names {
		c := count(n)
		noun := "memos"
		if c == 1 {
			noun = "memo"
		}
		fmt.Fprintf(&b, "%s %s (%d %s)\n", icon, n, c, noun)
	}
	return b.String()
}

// describe turns a memo-layer failure into the prose returned to the client.
func describe(action, title string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fmt.Sprintf("Memo %q not found.", title)
	case errors.Is(err, apperr.ErrAlreadyExists):
		return fmt.Sprintf("Error: a memo titled %q already exists.", title)
	case errors.Is(err, apperr.ErrInvalid):
		return fmt.Sprintf("Invalid memo %q: %v", title, err)
	default:
		return fmt.Sprintf("Failed to %s: %v", action, err)
	}
}
