package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/legal-rag/internal/domain"
)

// contractText builds n unique sentences of roughly 70 characters each, no newlines.
func contractText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Section %03d requires the employer to pay the agreed salary monthly. ", i)
	}
	return b.String()
}

func newTestChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(Config{ChunkSize: size, ChunkOverlap: overlap}, nil)
	require.NoError(t, err)
	return c
}

func TestNewChunker_RejectsInvalidOverlap(t *testing.T) {
	_, err := NewChunker(Config{ChunkSize: 100, ChunkOverlap: 100}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewChunker(Config{ChunkSize: 100, ChunkOverlap: -1}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewChunker(Config{ChunkSize: -5}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewChunker_Defaults(t *testing.T) {
	c, err := NewChunker(Config{ChunkOverlap: 200}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultMinPageChars, c.minPageChars)
	assert.Equal(t, DefaultMinChunkChars, c.minChunkChars)
}

// A 40-character page is skipped; a 3,000-character page yields at least three
// overlapping chunks of at most 1,000 characters.
func TestChunkPages_TwoPageExample(t *testing.T) {
	page2 := contractText(44)
	require.GreaterOrEqual(t, utf8.RuneCountInString(page2), 3000)

	pages := []domain.Page{
		{PageNumber: 1, Text: strings.Repeat("x", 40), DocumentID: "doc"},
		{PageNumber: 2, Text: page2, DocumentID: "doc"},
	}

	chunks := newTestChunker(t, 1000, 200).ChunkPages(pages)
	require.GreaterOrEqual(t, len(chunks), 3)

	for i, ch := range chunks {
		assert.Equal(t, 2, ch.PageNumber, "page 1 is below the page minimum")
		assert.Equal(t, "doc", ch.DocumentID)
		assert.LessOrEqual(t, ch.LengthChars, 1000)
		assert.GreaterOrEqual(t, ch.LengthChars, 100)
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, utf8.RuneCountInString(ch.Text), ch.LengthChars)
		assert.Equal(t, len(strings.Fields(ch.Text)), ch.WordCount)
	}

	// Each chunk starts with text carried over from the end of its predecessor
	for i := 1; i < len(chunks); i++ {
		head := chunks[i].Text[:20]
		assert.Contains(t, chunks[i-1].Text, head, "chunk %d should overlap chunk %d", i, i-1)
		assert.NotEqual(t, chunks[i-1].Text, chunks[i].Text)
	}
}

func TestChunkPages_NoChunkBelowMinimum(t *testing.T) {
	text := "Short heading\n\n" + contractText(30) + "\n\nSigned.\n\n" + contractText(5)
	pages := []domain.Page{{PageNumber: 1, Text: text, DocumentID: "d"}}

	for _, tc := range []struct{ size, overlap int }{
		{1000, 200}, {500, 0}, {300, 299}, {150, 50}, {2000, 100},
	} {
		chunks := newTestChunker(t, tc.size, tc.overlap).ChunkPages(pages)
		require.NotEmpty(t, chunks, "size=%d overlap=%d", tc.size, tc.overlap)
		for _, ch := range chunks {
			assert.GreaterOrEqual(t, ch.LengthChars, 100, "size=%d overlap=%d", tc.size, tc.overlap)
			assert.LessOrEqual(t, ch.LengthChars, tc.size, "size=%d overlap=%d", tc.size, tc.overlap)
			assert.Equal(t, strings.TrimSpace(ch.Text), ch.Text)
		}
	}
}

func TestChunkPages_PrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.TrimSpace(contractText(6))
	para2 := strings.TrimSpace(strings.ReplaceAll(contractText(6), "salary", "bonus"))
	pages := []domain.Page{{PageNumber: 4, Text: para1 + "\n\n" + para2, DocumentID: "d"}}

	chunks := newTestChunker(t, 500, 0).ChunkPages(pages)
	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0].Text)
	assert.Equal(t, para2, chunks[1].Text)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestChunkPages_Deterministic(t *testing.T) {
	pages := []domain.Page{
		{PageNumber: 1, Text: contractText(20), DocumentID: "d"},
		{PageNumber: 3, Text: contractText(25), DocumentID: "d"},
	}
	c := newTestChunker(t, 600, 100)
	assert.Equal(t, c.ChunkPages(pages), c.ChunkPages(pages))

	chunks := c.ChunkPages(pages)
	lastPage := 0
	for _, ch := range chunks {
		assert.GreaterOrEqual(t, ch.PageNumber, lastPage, "page order is preserved")
		lastPage = ch.PageNumber
	}
}

func TestChunkPages_BlankAndShortPages(t *testing.T) {
	pages := []domain.Page{
		{PageNumber: 1, Text: "   \n\t  ", DocumentID: "d"},
		{PageNumber: 2, Text: "This page has sixty characters of text but no more than that.", DocumentID: "d"},
	}
	assert.Empty(t, newTestChunker(t, 1000, 200).ChunkPages(pages))
}

func TestSplitText_HardBreakWithoutSeparators(t *testing.T) {
	text := strings.Repeat("a", 2500)
	pieces := newTestChunker(t, 1000, 200).SplitText(text)
	require.GreaterOrEqual(t, len(pieces), 3)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p), 1000)
	}
}

func TestSplitText_MultibyteLengths(t *testing.T) {
	text := strings.Repeat("§ Überweisung fällig. ", 100)
	pieces := newTestChunker(t, 300, 50).SplitText(text)
	for _, p := range pieces {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 300)
		assert.True(t, utf8.ValidString(p))
	}
}
