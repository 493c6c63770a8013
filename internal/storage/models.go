package storage

import "github.com/bull/legal-rag/internal/domain"

// DefaultCollectionName is the collection used when none is configured.
const DefaultCollectionName = "legal_documents"

// DefaultVectorDimension is the embedding size for text-embedding-3-small.
const DefaultVectorDimension = 1536

// Record is one stored chunk with its embedding.
type Record struct {
	ID        string // domain.RecordID(document_id, seq)
	Chunk     domain.Chunk
	Embedding []float32
}

// ScoredRecord is a search hit. Distance is cosine distance: 0 is identical,
// larger is less similar.
type ScoredRecord struct {
	Record   *Record
	Distance float64
}
