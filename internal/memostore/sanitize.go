package memostore

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/starford/memopad/internal/storage"
)

// MaxStemLength is the longest filename stem Sanitize produces, in UTF-16
// code units.
const MaxStemLength = 50

var (
	illegalCharsRe = regexp.MustCompile(`[<>:"/\\|?*]`)
	// ASCII whitespace plus the Unicode space separators, line/paragraph
	// separators and the byte order mark.
	whitespaceRe = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
)

// Sanitize derives the storage filename from a title: characters illegal in
// filenames are dropped, whitespace runs become "_", the result is lowercased,
// cut to MaxStemLength UTF-16 code units and given the memo extension. Distinct
// titles may map to the same filename.
func Sanitize(title string) string {
	stem := illegalCharsRe.ReplaceAllString(title, "")
	stem = whitespaceRe.ReplaceAllString(stem, "_")
	stem = strings.ToLower(stem)
	return truncateUTF16(stem, MaxStemLength) + storage.Ext
}

// truncateUTF16 cuts s to at most max UTF-16 code units without splitting a
// character; a surrogate pair that does not fit is dropped whole.
func truncateUTF16(s string, max int) string {
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if n+w > max {
			return s[:i]
		}
		n += w
	}
	return s
}

// TitleFromFilename recovers a display title for memos without metadata.
func TitleFromFilename(filename string) string {
	stem := strings.TrimSuffix(filename, storage.Ext)
	return strings.ReplaceAll(stem, "_", " ")
}

// URIStem is the filename without its extension.
func URIStem(filename string) string {
	return strings.TrimSuffix(filename, storage.Ext)
}
