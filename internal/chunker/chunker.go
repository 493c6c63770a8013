// Package chunker splits page text into overlapping, size-bounded chunks.
package chunker

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/bull/legal-rag/internal/domain"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 200

	// DefaultMinPageChars skips pages too short to yield meaningful chunks.
	DefaultMinPageChars = 50

	// DefaultMinChunkChars drops chunks that carry too little signal to index.
	DefaultMinChunkChars = 100
)

// separators are tried in order: paragraph, line, sentence, word, character.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Config configures a Chunker. Zero values select the defaults.
type Config struct {
	ChunkSize     int
	ChunkOverlap  int
	MinPageChars  int
	MinChunkChars int
}

// Chunker splits pages along natural boundaries, falling back to harder breaks
// only when a piece still exceeds the chunk size.
type Chunker struct {
	chunkSize     int
	chunkOverlap  int
	minPageChars  int
	minChunkChars int
	splitter      textsplitter.RecursiveCharacter
	logger        *slog.Logger
}

// NewChunker validates cfg and returns a Chunker. Lengths are measured in characters (runes).
func NewChunker(cfg Config, logger *slog.Logger) (*Chunker, error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MinPageChars == 0 {
		cfg.MinPageChars = DefaultMinPageChars
	}
	if cfg.MinChunkChars == 0 {
		cfg.MinChunkChars = DefaultMinChunkChars
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrValidation, cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)",
			domain.ErrValidation, cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Separators stay attached to the pieces, and lengths count runes.
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(separators),
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
		textsplitter.WithKeepSeparator(true),
	)
	return &Chunker{
		chunkSize:     cfg.ChunkSize,
		chunkOverlap:  cfg.ChunkOverlap,
		minPageChars:  cfg.MinPageChars,
		minChunkChars: cfg.MinChunkChars,
		splitter:      splitter,
		logger:        logger,
	}, nil
}

// ChunkPages splits every page and returns the surviving chunks in page order,
// then split order within a page.
func (c *Chunker) ChunkPages(pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		if runeLen(strings.TrimSpace(page.Text)) < c.minPageChars {
			continue
		}

		for idx, piece := range c.SplitText(page.Text) {
			content := strings.TrimSpace(piece)
			length := runeLen(content)
			if length < c.minChunkChars {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Text:        content,
				DocumentID:  page.DocumentID,
				PageNumber:  page.PageNumber,
				ChunkIndex:  idx,
				LengthChars: length,
				WordCount:   len(strings.Fields(content)),
			})
		}
	}

	c.logger.Debug("Created chunks", "pages", len(pages), "chunks", len(chunks))
	return chunks
}

// SplitText splits text into pieces of at most ChunkSize characters.
// Pieces are whitespace-trimmed; empty pieces are never returned.
func (c *Chunker) SplitText(text string) []string {
	pieces, err := c.splitter.SplitText(text)
	if err != nil {
		c.logger.Warn("Failed to split text", "error", err)
		return nil
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
