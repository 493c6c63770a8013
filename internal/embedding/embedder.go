package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is used when no embedding model is configured.
	DefaultModel = "text-embedding-3-small"

	// DefaultBatchSize keeps a single request well under provider input limits.
	DefaultBatchSize = 256
)

// Embedder turns texts into vectors with one fixed model. The same Embedder
// must serve both ingestion and querying so the vectors are comparable.
type Embedder struct {
	client    *Client
	model     string
	batchSize int

	// retry bounds, overridden in tests
	initialInterval time.Duration
	maxElapsed      time.Duration
}

// NewEmbedder creates an Embedder. Empty model selects DefaultModel and a
// non-positive batchSize selects DefaultBatchSize.
func NewEmbedder(client *Client, model string, batchSize int) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:          client,
		model:           model,
		batchSize:       batchSize,
		initialInterval: 500 * time.Millisecond,
		maxElapsed:      30 * time.Second,
	}
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// GenerateEmbeddings returns one vector per input text, in input order.
// Batches requests and retries with exponential backoff on rate limit and
// server errors.
func (e *Embedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
		}

		// Providers may return items out of order; place them by index.
		embeddings = make([][]float32, len(texts))
		for _, data := range resp.Data {
			idx := int(data.Index)
			if idx < 0 || idx >= len(texts) || embeddings[idx] != nil {
				return backoff.Permanent(fmt.Errorf("invalid embedding index %d", data.Index))
			}
			embeddings[idx] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.initialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = e.maxElapsed

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRetryable reports rate limit (HTTP 429) and server (5xx) errors.
func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// toFloat32 converts []float64 to []float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
