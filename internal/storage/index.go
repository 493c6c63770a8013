package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/legal-rag/internal/domain"
)

// Embedder turns texts into vectors, one per text, in input order.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores chunk embeddings and answers similarity queries. It owns the
// embedder, so ingestion and querying always use the same model.
type Index struct {
	backend  Backend
	embedder Embedder
	logger   *slog.Logger
	locks    *keyedMutex
}

// NewIndex creates an Index over backend using embedder for both writes and queries.
func NewIndex(backend Backend, embedder Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		backend:  backend,
		embedder: embedder,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

// Upsert replaces every record of documentID with chunks. Upserts of the same
// document are serialized; different documents proceed in parallel.
//
// Chunks are embedded first, then prior records are deleted and the new ones
// inserted. A failed delete is logged and ignored. Readers may briefly see the
// document without records while the swap is in progress.
func (i *Index) Upsert(ctx context.Context, documentID string, chunks []domain.Chunk) (int, error) {
	if documentID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrValidation)
	}

	unlock := i.locks.Lock(documentID)
	defer unlock()

	var embeddings [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for n, c := range chunks {
			texts[n] = c.Text
		}

		var err error
		embeddings, err = i.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("%w: embed chunks: %w", domain.ErrServiceUnavailable, err)
		}
		if len(embeddings) != len(chunks) {
			return 0, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
				domain.ErrServiceUnavailable, len(embeddings), len(chunks))
		}
	}

	if err := i.backend.DeleteDocument(ctx, documentID); err != nil {
		i.logger.Warn("Failed to delete stale records", "document_id", documentID, "error", err)
	}

	if len(chunks) == 0 {
		return 0, nil
	}

	records := make([]*Record, len(chunks))
	for n, c := range chunks {
		c.DocumentID = documentID
		records[n] = &Record{
			ID:        domain.RecordID(documentID, n),
			Chunk:     c,
			Embedding: embeddings[n],
		}
	}

	if err := i.backend.UpsertRecords(ctx, records); err != nil {
		return 0, fmt.Errorf("%w: store records: %w", domain.ErrServiceUnavailable, err)
	}

	i.logger.Info("Indexed document", "document_id", documentID, "records", len(records))
	return len(records), nil
}

// Query returns up to topK candidates nearest to text, optionally restricted
// to one document, ascending by distance.
func (i *Index) Query(ctx context.Context, text, documentID string, topK int) ([]domain.Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", domain.ErrValidation)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrValidation, topK)
	}

	vectors, err := i.embedder.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrServiceUnavailable, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for the query", domain.ErrServiceUnavailable, len(vectors))
	}

	hits, err := i.backend.Search(ctx, vectors[0], documentID, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrServiceUnavailable, err)
	}

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		distance := hit.Distance
		candidates = append(candidates, domain.Candidate{
			ID:       hit.Record.ID,
			Chunk:    hit.Record.Chunk,
			Distance: &distance,
		})
	}

	i.logger.Debug("Queried index", "document_id", documentID, "top_k", topK, "hits", len(candidates))
	return candidates, nil
}

// Count returns the number of records stored for a document, or in total
// when documentID is empty.
func (i *Index) Count(ctx context.Context, documentID string) (uint64, error) {
	n, err := i.backend.Count(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrServiceUnavailable, err)
	}
	return n, nil
}

// Reset removes every record from the backend.
func (i *Index) Reset(ctx context.Context) error {
	if err := i.backend.Reset(ctx); err != nil {
		return fmt.Errorf("%w: reset: %w", domain.ErrServiceUnavailable, err)
	}
	return nil
}

// Health reports whether the backend is reachable.
func (i *Index) Health(ctx context.Context) error {
	return i.backend.Health(ctx)
}
