// Package rag ingests documents into the vector index and answers questions
// grounded in retrieved excerpts.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/legal-rag/internal/domain"
	"github.com/bull/legal-rag/internal/entities"
	"github.com/bull/legal-rag/internal/llm"
)

// PageLoader extracts the non-blank pages of a document file.
type PageLoader interface {
	Load(path, documentID string) ([]domain.Page, error)
}

// PageChunker splits pages into chunks.
type PageChunker interface {
	ChunkPages(pages []domain.Page) []domain.Chunk
}

// VectorIndex stores chunks and retrieves the nearest ones for a query.
type VectorIndex interface {
	Upsert(ctx context.Context, documentID string, chunks []domain.Chunk) (int, error)
	Query(ctx context.Context, text, documentID string, topK int) ([]domain.Candidate, error)
}

// AnswerGenerator produces the answer text for a rendered prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// IngestStatus is the terminal state of an ingestion.
type IngestStatus string

const (
	StatusIngested IngestStatus = "ingested"
	StatusNoText   IngestStatus = "no_text"
)

// IngestResult summarizes one ingestion.
type IngestResult struct {
	FileID   string           `json:"file_id"`
	Source   string           `json:"source"`
	Chunks   int              `json:"chunks"`
	Status   IngestStatus     `json:"status"`
	Entities domain.EntitySet `json:"entities,omitempty"`
}

// Source is one excerpt placed in the prompt, as returned to the caller.
type Source struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Page   int      `json:"page"`
	Text   string   `json:"text"`
	Score  *float64 `json:"score"` // nil when the index reported no distance
}

// AnswerResult is a grounded answer with the sources it was given.
type AnswerResult struct {
	Answer              string   `json:"answer"`
	Sources             []Source `json:"sources"`
	Retrieved           int      `json:"retrieved"`
	UnverifiedCitations []string `json:"unverified_citations"`
}

// Config holds retrieval and generation limits.
type Config struct {
	DefaultTopK     int
	MaxTopK         int
	MaxAnswerTokens int
}

// Pipeline wires loading, chunking, indexing, entity extraction and answer generation.
type Pipeline struct {
	loader    PageLoader
	chunker   PageChunker
	index     VectorIndex
	extractor entities.Extractor
	generator AnswerGenerator
	cfg       Config
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. A nil extractor disables entity extraction.
func NewPipeline(
	loader PageLoader,
	chunker PageChunker,
	index VectorIndex,
	extractor entities.Extractor,
	generator AnswerGenerator,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = entities.Unavailable{}
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = cfg.DefaultTopK
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = 512
	}
	return &Pipeline{
		loader:    loader,
		chunker:   chunker,
		index:     index,
		extractor: extractor,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ingest loads the file at path, chunks it and replaces the document's
// records in the index. Documents without extractable text end in StatusNoText
// without touching the index.
func (p *Pipeline) Ingest(ctx context.Context, documentID, path string) (*IngestResult, error) {
	noText := &IngestResult{FileID: documentID, Source: documentID, Status: StatusNoText}

	pages, err := p.loader.Load(path, documentID)
	if errors.Is(err, domain.ErrEmptyDocument) {
		p.logger.Info("Document has no pages", "document_id", documentID)
		return noText, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	chunks := p.chunker.ChunkPages(pages)
	if len(chunks) == 0 {
		p.logger.Info("Document has no indexable text", "document_id", documentID, "pages", len(pages))
		return noText, nil
	}
	p.logger.Debug("Chunked document", "document_id", documentID, "pages", len(pages), "chunks", len(chunks))

	n, err := p.index.Upsert(ctx, documentID, chunks)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	found := p.extractor.Extract(ctx, pages)

	p.logger.Info("Ingested document", "document_id", documentID, "pages", len(pages), "chunks", n)
	return &IngestResult{
		FileID:   documentID,
		Source:   documentID,
		Chunks:   n,
		Status:   StatusIngested,
		Entities: found,
	}, nil
}

// ClampTopK maps a requested top_k into [1, MaxTopK]; non-positive values
// select DefaultTopK.
func (p *Pipeline) ClampTopK(topK int) int {
	switch {
	case topK <= 0:
		return p.cfg.DefaultTopK
	case topK > p.cfg.MaxTopK:
		return p.cfg.MaxTopK
	default:
		return topK
	}
}

// Answer retrieves candidates for question, optionally within one document,
// and asks the answer model for a grounded answer. The model is called even
// when nothing is retrieved, so it can give the refusal. The returned sources
// are exactly the candidates placed in the prompt.
func (p *Pipeline) Answer(ctx context.Context, question, documentID string, topK int) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}
	topK = p.ClampTopK(topK)

	candidates, err := p.index.Query(ctx, question, documentID, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	prompt := BuildPrompt(question, candidates)
	answer, err := p.generator.Generate(ctx, prompt, llm.Options{
		Temperature: 0,
		MaxTokens:   p.cfg.MaxAnswerTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: generate answer: %w", domain.ErrServiceUnavailable, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: answer model returned an empty answer", domain.ErrServiceUnavailable)
	}

	sources := make([]Source, len(candidates))
	for i, c := range candidates {
		sources[i] = Source{
			ID:     c.ID,
			Source: c.Chunk.DocumentID,
			Page:   c.Chunk.PageNumber,
			Text:   preview(c.Chunk.Text),
			Score:  score(c),
		}
	}

	unverified := UnverifiedCitations(answer, candidates)
	if len(unverified) > 0 {
		p.logger.Warn("Answer cites excerpts that were not retrieved",
			"document_id", documentID, "citations", unverified)
	}

	p.logger.Info("Answered question", "document_id", documentID, "top_k", topK, "retrieved", len(sources))
	return &AnswerResult{
		Answer:              answer,
		Sources:             sources,
		Retrieved:           len(sources),
		UnverifiedCitations: unverified,
	}, nil
}

// score converts distance to relevance as 1 - distance.
func score(c domain.Candidate) *float64 {
	if c.Distance == nil {
		return nil
	}
	s := 1 - *c.Distance
	return &s
}
