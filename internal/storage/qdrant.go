package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/legal-rag/internal/domain"
)

// vectorName is the named vector holding chunk embeddings.
const vectorName = "content"

// pointNamespace seeds deterministic point UUIDs derived from record IDs.
var pointNamespace = uuid.MustParse("6f1c7d0e-3b7a-4c55-9d0e-2a1f5b8c4e21")

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Dimension  int
}

// QdrantStorage wraps the Qdrant client with connection management and health checks.
type QdrantStorage struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(cfg QdrantConfig) (*QdrantStorage, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollectionName
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultVectorDimension
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}

	if err := storage.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

func newRetryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error { return s.Health(ctx) }, backoff.WithContext(newRetryBackOff(), ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection with cosine vectors and a keyword
// index on document_id. An existing collection must have the configured
// vector size, otherwise ErrDimensionMismatch is returned.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return fmt.Errorf("failed to get collection: %w", err)
		}
		params := info.GetConfig().GetParams().GetVectorsConfig().GetParamsMap().GetMap()[vectorName]
		if params == nil {
			return fmt.Errorf("%w: collection %s has no %q vector", ErrDimensionMismatch, s.collection, vectorName)
		}
		if int(params.GetSize()) != s.dimension {
			return fmt.Errorf("%w: collection %s has size %d, embedder produces %d",
				ErrDimensionMismatch, s.collection, params.GetSize(), s.dimension)
		}
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(s.dimension),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Filtered search and delete both go through document_id.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "document_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field document_id: %w", err)
	}

	return nil
}

// Reset drops and recreates the collection.
func (s *QdrantStorage) Reset(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func documentFilter(documentID string) *qdrant.Filter {
	if documentID == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
	}
}

// pointID maps a record ID onto a stable UUID, so re-ingesting a document
// overwrites rather than duplicates points.
func pointID(recordID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(pointNamespace, []byte(recordID)).String())
}

// DeleteDocument removes all points of a document and waits for completion.
func (s *QdrantStorage) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("delete requires a document id")
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

func (s *QdrantStorage) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(newRetryBackOff(), ctx))
}

// UpsertRecords stores records in batches of 100.
func (s *QdrantStorage) UpsertRecords(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	for i, rec := range records {
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(rec.Embedding), s.dimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		batch := records[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, rec := range batch {
			payload := rec.Chunk.Metadata()
			payload["record_id"] = rec.ID
			payload["text"] = rec.Chunk.Text

			points[j] = &qdrant.PointStruct{
				Id: pointID(rec.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(rec.Embedding...),
				}),
				Payload: qdrant.NewValueMap(payload),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// Search runs a cosine similarity query. Qdrant reports similarity; it is
// converted to distance as 1 - similarity.
func (s *QdrantStorage) Search(ctx context.Context, vector []float32, documentID string, limit int) ([]*ScoredRecord, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	using := vectorName
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          &using,
		Filter:         documentFilter(documentID),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	scored := make([]*ScoredRecord, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		scored = append(scored, &ScoredRecord{
			Record: &Record{
				ID: payload["record_id"].GetStringValue(),
				Chunk: domain.Chunk{
					Text:        payload["text"].GetStringValue(),
					DocumentID:  payload["document_id"].GetStringValue(),
					PageNumber:  int(payload["page"].GetIntegerValue()),
					ChunkIndex:  int(payload["chunk_index"].GetIntegerValue()),
					LengthChars: int(payload["chunk_length"].GetIntegerValue()),
					WordCount:   int(payload["word_count"].GetIntegerValue()),
				},
			},
			Distance: 1 - float64(result.Score),
		})
	}

	return scored, nil
}

// Count returns the exact number of points for a document, or for the whole
// collection when documentID is empty.
func (s *QdrantStorage) Count(ctx context.Context, documentID string) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         documentFilter(documentID),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}
