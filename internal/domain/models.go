// Package domain holds the types shared by the ingestion and answering pipeline.
package domain

import (
	"fmt"
	"strings"
)

// Page is the extracted text of one physical PDF page.
type Page struct {
	PageNumber int    // 1-based physical page number
	Text       string // Raw extracted text
	DocumentID string
}

// Chunk is a bounded span of a single page's text. Chunks never span pages.
type Chunk struct {
	Text        string
	DocumentID  string
	PageNumber  int
	ChunkIndex  int // Zero-based position within the source page
	LengthChars int
	WordCount   int
}

// Metadata returns the payload stored next to the chunk text in the vector index.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		"document_id":  c.DocumentID,
		"page":         c.PageNumber,
		"chunk_index":  c.ChunkIndex,
		"chunk_length": c.LengthChars,
		"word_count":   c.WordCount,
	}
}

// RecordID builds the identifier of an indexed record: "{document_id}::chunk::{seq}".
// seq is the chunk's position in the document-wide chunk sequence.
func RecordID(documentID string, seq int) string {
	return fmt.Sprintf("%s::chunk::%d", documentID, seq)
}

// Candidate is a record returned by a similarity search.
type Candidate struct {
	ID       string
	Chunk    Chunk
	Distance *float64 // nil when the backend reports no distance
}

// EntityLabel names an entity category.
type EntityLabel string

// Entity categories extracted from legal documents.
const (
	EntityPerson EntityLabel = "PERSON"
	EntityOrg    EntityLabel = "ORG"
	EntityDate   EntityLabel = "DATE"
	EntityMoney  EntityLabel = "MONEY"
	EntityGPE    EntityLabel = "GPE" // Location
	EntityLaw    EntityLabel = "LAW" // Legal reference
)

// EntityLabels lists every category in a stable order.
var EntityLabels = []EntityLabel{EntityPerson, EntityOrg, EntityDate, EntityMoney, EntityGPE, EntityLaw}

// EntitySet maps every entity category to its distinct values.
type EntitySet map[EntityLabel][]string

// NewEntitySet returns a set with an empty, non-nil slice for every category.
func NewEntitySet() EntitySet {
	set := make(EntitySet, len(EntityLabels))
	for _, label := range EntityLabels {
		set[label] = []string{}
	}
	return set
}

// IsEntityLabel reports whether s is a known category.
func IsEntityLabel(s string) bool {
	for _, label := range EntityLabels {
		if string(label) == s {
			return true
		}
	}
	return false
}

// NormalizeEntity trims an entity value; values of one character or less are rejected.
func NormalizeEntity(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if len([]rune(v)) <= 1 {
		return "", false
	}
	return v, true
}
