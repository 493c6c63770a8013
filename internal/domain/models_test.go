package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordID(t *testing.T) {
	assert.Equal(t, "abc::chunk::0", RecordID("abc", 0))
	assert.Equal(t, "abc::chunk::12", RecordID("abc", 12))
}

func TestNewEntitySet(t *testing.T) {
	set := NewEntitySet()
	assert.Len(t, set, 6)
	for _, label := range EntityLabels {
		assert.NotNil(t, set[label], "label %s", label)
		assert.Empty(t, set[label])
	}
}

func TestNormalizeEntity(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  Acme Corp ", "Acme Corp", true},
		{"A", "", false},
		{"   ", "", false},
		{"$5", "$5", true},
	}
	for _, tc := range tests {
		got, ok := NormalizeEntity(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestChunkMetadata(t *testing.T) {
	c := Chunk{DocumentID: "d1", PageNumber: 3, ChunkIndex: 1, LengthChars: 120, WordCount: 20}
	meta := c.Metadata()
	assert.Equal(t, "d1", meta["document_id"])
	assert.Equal(t, 3, meta["page"])
	assert.Equal(t, 1, meta["chunk_index"])
	assert.Equal(t, 120, meta["chunk_length"])
	assert.Equal(t, 20, meta["word_count"])
}
