package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStorage is an in-process Backend using brute-force cosine search.
// Suitable for tests and small single-process deployments.
type MemoryStorage struct {
	mu    sync.RWMutex
	docs  map[string][]*Record
	order []string // document insertion order, for stable ties
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]*Record)}
}

func (m *MemoryStorage) UpsertRecords(_ context.Context, records []*Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		docID := rec.Chunk.DocumentID
		existing, ok := m.docs[docID]
		if !ok {
			m.order = append(m.order, docID)
		}

		replaced := false
		for i, old := range existing {
			if old.ID == rec.ID {
				existing[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}
		m.docs[docID] = existing
	}
	return nil
}

func (m *MemoryStorage) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[documentID]; !ok {
		return nil
	}
	delete(m.docs, documentID)
	for i, id := range m.order {
		if id == documentID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStorage) Search(_ context.Context, vector []float32, documentID string, limit int) ([]*ScoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []*ScoredRecord
	for _, docID := range m.order {
		if documentID != "" && docID != documentID {
			continue
		}
		for _, rec := range m.docs[docID] {
			if len(rec.Embedding) != len(vector) {
				return nil, fmt.Errorf("%w: record %s has %d dimensions, query has %d",
					ErrDimensionMismatch, rec.ID, len(rec.Embedding), len(vector))
			}
			hits = append(hits, &ScoredRecord{Record: rec, Distance: cosineDistance(vector, rec.Embedding)})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemoryStorage) Count(_ context.Context, documentID string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if documentID != "" {
		return uint64(len(m.docs[documentID])), nil
	}
	var n uint64
	for _, recs := range m.docs {
		n += uint64(len(recs))
	}
	return n, nil
}

func (m *MemoryStorage) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string][]*Record)
	m.order = nil
	return nil
}

func (m *MemoryStorage) Health(context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }

// cosineDistance returns 1 - cosine similarity. Zero vectors are maximally
// distant from everything.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
