// Package mcp exposes the legal document library as MCP tools.
package mcp

// IngestDocumentInput defines the input parameters for the ingest_document tool.
type IngestDocumentInput struct {
	// FileID is the identifier returned when the PDF was uploaded.
	FileID string `json:"file_id" jsonschema:"The file_id returned by the upload endpoint"`
}

// IngestDocumentOutput summarizes one ingestion.
type IngestDocumentOutput struct {
	// FileID echoes the ingested document.
	FileID string `json:"file_id"`
	// Source is the stored file name the chunks were read from.
	Source string `json:"source"`
	// Chunks is the number of chunks written to the index.
	Chunks int `json:"chunks"`
	// Status is "ingested" or "no_text" when the PDF has no extractable text.
	Status string `json:"status"`
	// Entities maps an entity category (PERSON, ORG, DATE, MONEY, GPE, LAW) to its values.
	Entities map[string][]string `json:"entities,omitempty"`
}

// AnswerQuestionInput defines the input parameters for the answer_question tool.
type AnswerQuestionInput struct {
	// Question is the natural-language question.
	Question string `json:"question" jsonschema:"The question to answer from the ingested documents"`
	// FileID restricts retrieval to one document. Empty searches every document.
	FileID string `json:"file_id,omitempty" jsonschema:"Restrict retrieval to this document"`
	// TopK is the number of excerpts to retrieve.
	TopK int `json:"top_k,omitempty" jsonschema:"Number of excerpts to retrieve (default 10, capped at 30)"`
}

// AnswerQuestionOutput contains a grounded answer.
type AnswerQuestionOutput struct {
	// Answer is the model's answer, or the fixed refusal sentence.
	Answer string `json:"answer"`
	// Sources are the excerpts the model was given, in prompt order.
	Sources []SourceExcerpt `json:"sources"`
	// Retrieved is the number of excerpts retrieved.
	Retrieved int `json:"retrieved"`
	// UnverifiedCitations lists citation tags in the answer that match no excerpt.
	UnverifiedCitations []string `json:"unverified_citations"`
}

// SourceExcerpt is one excerpt returned with an answer.
type SourceExcerpt struct {
	// ID is the chunk record identifier.
	ID string `json:"id"`
	// Source is the document the excerpt came from.
	Source string `json:"source"`
	// Page is the 1-based physical page number.
	Page int `json:"page"`
	// Text is a preview of the excerpt.
	Text string `json:"text"`
	// Score is the similarity (1 - distance). Absent when the index reported no distance.
	Score *float64 `json:"score,omitempty"`
}

// ListDocumentsInput defines the input parameters for the list_documents tool.
// This tool takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput contains every registered document.
type ListDocumentsOutput struct {
	// Documents is the registry listing, newest upload first.
	Documents []DocumentInfo `json:"documents"`
	// Count is the total number of documents.
	Count int `json:"count"`
}

// GetDocumentInput defines the input parameters for the get_document tool.
type GetDocumentInput struct {
	// FileID identifies the document.
	FileID string `json:"file_id" jsonschema:"The file_id of the document"`
}

// GetDocumentOutput contains a single registry entry.
type GetDocumentOutput struct {
	// Document is the registry entry, empty when not found.
	Document DocumentInfo `json:"document"`
	// Found indicates whether the document exists.
	Found bool `json:"found"`
}

// DocumentInfo is a registry entry.
type DocumentInfo struct {
	// FileID is the document identifier.
	FileID string `json:"file_id"`
	// Filename is the name the PDF was uploaded under.
	Filename string `json:"filename"`
	// SizeBytes is the stored file size.
	SizeBytes int64 `json:"size_bytes"`
	// SHA256 is the hex digest of the stored file.
	SHA256 string `json:"sha256"`
	// Status is uploaded, ingested, no_text or failed.
	Status string `json:"status"`
	// ChunkCount is the number of chunks from the last ingestion.
	ChunkCount int `json:"chunk_count"`
	// UploadedAt is the upload time (RFC 3339).
	UploadedAt string `json:"uploaded_at"`
	// IngestedAt is the last ingestion time (RFC 3339), empty if never ingested.
	IngestedAt string `json:"ingested_at,omitempty"`
}
