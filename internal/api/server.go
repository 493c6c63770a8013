// Package api serves the document library over HTTP: JSON endpoints for
// upload, ingestion, querying and listing, a health check and a small UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/bull/legal-rag/internal/domain"
	"github.com/bull/legal-rag/internal/library"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
	"github.com/bull/legal-rag/internal/uploads"
)

// Library is the application service used by the handlers.
type Library interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*library.UploadResult, error)
	Ingest(ctx context.Context, fileID string) (*rag.IngestResult, error)
	Answer(ctx context.Context, question, fileID string, topK int) (*rag.AnswerResult, error)
	Documents(ctx context.Context) ([]registry.Document, error)
	Document(ctx context.Context, fileID string) (*registry.Document, error)
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
	FileID   string `json:"file_id,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

// Server holds the HTTP handlers.
type Server struct {
	lib    Library
	store  HealthChecker
	model  ModelPinger
	logger *slog.Logger
	ui     *ui
}

// NewServer creates the HTTP handlers. model may be nil.
func NewServer(lib Library, store HealthChecker, model ModelPinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		lib:    lib,
		store:  store,
		model:  model,
		logger: logger,
		ui:     newUI(lib, logger),
	}
}

// Register mounts every route on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /ingest/{file_id}", s.handleIngest)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /documents/{file_id}", s.handleDocument)
	mux.HandleFunc("GET /health", NewHealthHandler(s.store, s.model))
	mux.HandleFunc("GET /{$}", s.ui.handleIndex)
	mux.HandleFunc("POST /ui/ask", s.ui.handleAsk)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// handleUpload accepts a multipart form with a "file" part of type application/pdf.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploads.DefaultMaxBytes+(1<<20))

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: expected multipart/form-data", domain.ErrValidation))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(w, s.logger, fmt.Errorf("%w: read multipart: %v", domain.ErrValidation, err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if mediaType != "application/pdf" {
			part.Close()
			writeError(w, s.logger, fmt.Errorf("%w: only PDF files are accepted, got %q", domain.ErrValidation, mediaType))
			return
		}

		res, err := s.lib.Upload(r.Context(), part.FileName(), part)
		part.Close()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "file too large"})
			return
		}
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	writeError(w, s.logger, fmt.Errorf("%w: missing form field \"file\"", domain.ErrValidation))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	res, err := s.lib.Ingest(r.Context(), r.PathValue("file_id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err))
		return
	}

	res, err := s.lib.Answer(r.Context(), req.Question, req.FileID, req.TopK)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.lib.Documents(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.lib.Document(r.Context(), r.PathValue("file_id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
