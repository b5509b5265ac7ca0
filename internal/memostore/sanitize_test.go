package memostore

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"spaces", "Meeting Notes", "meeting_notes.txt"},
		{"non-latin", "買い物リスト", "買い物リスト.txt"},
		{"keeps other punctuation", "重要な ToDo!@#$", "重要な_todo!@#$.txt"},
		{"illegal removed", `test<>:"/\|?*file`, "testfile.txt"},
		{"whitespace runs", "a \t\n b", "a_b.txt"},
		{"ideographic space", "会議\u3000メモ", "会議_メモ.txt"},
		{"no-break space", "a\u00a0b", "a_b.txt"},
		{"vertical tab", "a\vb", "a_b.txt"},
		{"mixed unicode spaces", "a\u2003 \u2028\ufeffb", "a_b.txt"},
		{"already sanitized", "meeting_notes", "meeting_notes.txt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.title))
		})
	}
}

func TestSanitize_Truncates(t *testing.T) {
	got := Sanitize(strings.Repeat("a", 60))
	assert.Len(t, got, MaxStemLength+len(".txt"))

	multi := Sanitize(strings.Repeat("メ", 60))
	assert.Equal(t, MaxStemLength, utf8.RuneCountInString(strings.TrimSuffix(multi, ".txt")))

	// Characters outside the BMP count as two units.
	astral := Sanitize(strings.Repeat("😀", 30))
	assert.Equal(t, strings.Repeat("😀", 25)+".txt", astral)

	straddling := Sanitize(strings.Repeat("a", 49) + "😀")
	assert.Equal(t, strings.Repeat("a", 49)+".txt", straddling)
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, title := range []string{"Meeting Notes", "A  b\tC", strings.Repeat("x y ", 30), "ok"} {
		once := URIStem(Sanitize(title))
		assert.Equal(t, Sanitize(title), Sanitize(once), "title %q", title)
	}
}

func TestSanitize_AlwaysHasExtension(t *testing.T) {
	for _, title := range []string{"", "???", "x"} {
		assert.True(t, strings.HasSuffix(Sanitize(title), ".txt"))
	}
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "meeting notes", TitleFromFilename("meeting_notes.txt"))
}
