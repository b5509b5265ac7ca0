// Package parser splits memo files into a YAML frontmatter block and a body,
// and renders them back.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/memopad/internal/models"
)

const delim = "---"

// Result holds the output of parsing a memo file.
type Result struct {
	// Frontmatter is nil for raw memos.
	Frontmatter *models.Frontmatter
	Body        string
}

// Parse separates the metadata block from the body. Documents without a
// complete envelope, whose block is not valid YAML, or whose block lacks a
// createdAt timestamp are returned whole as a raw body.
func Parse(data []byte) *Result {
	fm, body, ok := splitFrontmatter(data)
	if !ok {
		return &Result{Body: string(data)}
	}
	return &Result{Frontmatter: fm, Body: body}
}

// splitFrontmatter expects the opening delimiter on the very first line and
// returns everything after the closing delimiter line, byte for byte, as body.
func splitFrontmatter(data []byte) (*models.Frontmatter, string, bool) {
	rest, ok := cutDelimLine(data)
	if !ok {
		return nil, "", false
	}

	pos := 0
	for pos <= len(rest) {
		line := rest[pos:]
		end := bytes.IndexByte(line, '\n')
		next := len(rest)
		if end >= 0 {
			line = line[:end]
			next = pos + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == delim {
			var fm models.Frontmatter
			if err := yaml.Unmarshal(rest[:pos], &fm); err != nil {
				return nil, "", false
			}
			// Blocks the store did not write are body text.
			if fm.CreatedAt.IsZero() {
				return nil, "", false
			}
			return &fm, string(rest[next:]), true
		}
		if end < 0 {
			break
		}
		pos = next
	}
	// No closing delimiter.
	return nil, "", false
}

func cutDelimLine(data []byte) ([]byte, bool) {
	for _, open := range []string{delim + "\n", delim + "\r\n"} {
		if bytes.HasPrefix(data, []byte(open)) {
			return data[len(open):], true
		}
	}
	return nil, false
}

// Serialize renders a frontmatter block followed by body.
func Serialize(fm *models.Frontmatter, body string) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("parser: serialize frontmatter: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(delim + "\n")
	sb.Write(yamlBytes)
	sb.WriteString(delim + "\n")
	sb.WriteString(body)
	return []byte(sb.String()), nil
}
