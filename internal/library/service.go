// Package library is the application service behind the HTTP, MCP and CLI
// surfaces: it stores uploads, tracks them in the registry and runs the
// RAG pipeline.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bull/legal-rag/internal/domain"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
	"github.com/bull/legal-rag/internal/uploads"
)

// Pipeline ingests stored files and answers questions over them.
type Pipeline interface {
	Ingest(ctx context.Context, documentID, path string) (*rag.IngestResult, error)
	Answer(ctx context.Context, question, documentID string, topK int) (*rag.AnswerResult, error)
}

// UploadResult identifies a stored upload.
type UploadResult struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// Service coordinates the upload store, the registry and the pipeline.
type Service struct {
	store    *uploads.Store
	registry *registry.Registry
	pipeline Pipeline
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the library service.
func NewService(store *uploads.Store, reg *registry.Registry, pipeline Pipeline, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		registry: reg,
		pipeline: pipeline,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores a PDF and registers it. The filename is informational only.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "." || filename == "/" || filename == "" {
		filename = "document.pdf"
	}

	up, err := s.store.Save(r)
	if err != nil {
		return nil, err
	}

	if dups, err := s.registry.FindBySHA256(ctx, up.SHA256); err == nil && len(dups) > 0 {
		s.logger.Info("Upload duplicates an existing document", "file_id", up.FileID, "duplicate_of", dups[0].FileID)
	}

	err = s.registry.Add(ctx, registry.Document{
		FileID:     up.FileID,
		Filename:   filename,
		SizeBytes:  up.Size,
		SHA256:     up.SHA256,
		UploadedAt: s.now(),
	})
	if err != nil {
		if rmErr := os.Remove(up.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("Failed to remove unregistered upload", "file_id", up.FileID, "error", rmErr)
		}
		return nil, fmt.Errorf("register upload: %w", err)
	}

	s.logger.Info("Stored upload", "file_id", up.FileID, "filename", filename, "bytes", up.Size)
	return &UploadResult{FileID: up.FileID, Filename: filename}, nil
}

// Ingest runs the pipeline on a stored upload and records the outcome.
func (s *Service) Ingest(ctx context.Context, fileID string) (*rag.IngestResult, error) {
	path, err := s.store.Path(fileID)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Ingest(ctx, fileID, path)
	if err != nil {
		s.record(ctx, fileID, registry.StatusFailed, 0)
		return nil, err
	}

	status := registry.StatusIngested
	if result.Status == rag.StatusNoText {
		status = registry.StatusNoText
	}
	s.record(ctx, fileID, status, result.Chunks)
	return result, nil
}

// record updates the registry; files placed in the upload directory by hand
// have no registry row, which is not an error.
func (s *Service) record(ctx context.Context, fileID string, status registry.Status, chunks int) {
	err := s.registry.SetStatus(ctx, fileID, status, chunks, s.now())
	if err != nil && !errors.Is(err, registry.ErrDocumentNotFound) {
		s.logger.Warn("Failed to update registry", "file_id", fileID, "error", err)
	}
}

// Answer asks a question across all documents, or within fileID when set.
func (s *Service) Answer(ctx context.Context, question, fileID string, topK int) (*rag.AnswerResult, error) {
	return s.pipeline.Answer(ctx, question, strings.TrimSpace(fileID), topK)
}

// Documents lists registered uploads, newest first.
func (s *Service) Documents(ctx context.Context) ([]registry.Document, error) {
	return s.registry.List(ctx)
}

// Document returns one registered upload.
func (s *Service) Document(ctx context.Context, fileID string) (*registry.Document, error) {
	doc, err := s.registry.Get(ctx, fileID)
	if errors.Is(err, registry.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return doc, err
}
