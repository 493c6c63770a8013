package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/bull/legal-rag/internal/domain"
)

func TestBuildContext(t *testing.T) {
	long := strings.Repeat("x", MaxExcerptChars-3) + "   " + strings.Repeat("y", 50)
	got := BuildContext([]domain.Candidate{
		{Chunk: domain.Chunk{DocumentID: "lease", PageNumber: 3, Text: "Rent is due monthly."}},
		{Chunk: domain.Chunk{Text: long}},
	})

	parts := strings.Split(got, "\n\n")
	assert.Len(t, parts, 2)
	assert.Equal(t, "[lease | page:3] Rent is due monthly.", parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "[unknown_source | page:?] "))
	assert.True(t, strings.HasSuffix(parts[1], strings.Repeat("x", 10)+"..."), "trailing space trimmed before ellipsis")
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "(no excerpts)", BuildContext(nil))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("  What is the notice period?  ", []domain.Candidate{
		{Chunk: domain.Chunk{DocumentID: "contract", PageNumber: 7, Text: "Notice period is 30 days."}},
	})

	assert.Contains(t, prompt, RefusalText)
	assert.Contains(t, prompt, "[contract | page:7] Notice period is 30 days.")
	assert.Contains(t, prompt, "User Question: What is the notice period?\n")
	assert.Contains(t, prompt, "page:N-M")
}

func TestPreview(t *testing.T) {
	short := strings.Repeat("a", MaxPreviewChars)
	assert.Equal(t, short, preview(short))

	long := strings.Repeat("é", MaxPreviewChars+1)
	got := preview(long)
	assert.Equal(t, MaxPreviewChars+3, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "é..."))
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
		cut  bool
	}{
		{"abc", 5, "abc", false},
		{"abcdef", 3, "abc", true},
		{"ééé", 3, "ééé", false},
		{"éééé", 3, "ééé", true},
	}
	for _, tc := range tests {
		got, cut := truncateRunes(tc.in, tc.max)
		if got != tc.want || cut != tc.cut {
			t.Errorf("truncateRunes(%q, %d) = %q, %v; want %q, %v", tc.in, tc.max, got, cut, tc.want, tc.cut)
		}
	}
}
