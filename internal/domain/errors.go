package domain

import "errors"

// Error taxonomy shared by every layer. Callers classify failures with errors.Is.
var (
	// ErrNotFound indicates a missing file or document.
	ErrNotFound = errors.New("not found")

	// ErrEmptyDocument indicates a document with no pages or no extractable text.
	// Ingestion turns it into a "no_text" result instead of failing.
	ErrEmptyDocument = errors.New("empty document")

	// ErrServiceUnavailable indicates the embedding service, the answer model
	// or the vector database could not be reached. Callers may retry.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrValidation indicates malformed input: a non-PDF upload, an empty
	// question, an invalid chunking configuration.
	ErrValidation = errors.New("validation error")
)
