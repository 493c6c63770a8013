package storage

import "context"

// Backend is the persistence layer under an Index.
type Backend interface {
	// UpsertRecords inserts or replaces records by ID.
	UpsertRecords(ctx context.Context, records []*Record) error
	// DeleteDocument removes every record of a document. Deleting an unknown
	// document is not an error.
	DeleteDocument(ctx context.Context, documentID string) error
	// Search returns up to limit records nearest to vector, ascending by
	// distance. A non-empty documentID restricts the search to that document.
	Search(ctx context.Context, vector []float32, documentID string, limit int) ([]*ScoredRecord, error)
	// Count returns the number of stored records, for one document or all.
	Count(ctx context.Context, documentID string) (uint64, error)
	// Reset removes every record.
	Reset(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
