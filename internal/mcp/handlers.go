package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bull/legal-rag/internal/domain"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Library is the subset of the library service the tools need.
type Library interface {
	Ingest(ctx context.Context, fileID string) (*rag.IngestResult, error)
	Answer(ctx context.Context, question, fileID string, topK int) (*rag.AnswerResult, error)
	Documents(ctx context.Context) ([]registry.Document, error)
	Document(ctx context.Context, fileID string) (*registry.Document, error)
}

// makeIngestHandler creates the ingest_document tool handler.
func makeIngestHandler(lib Library) func(
	context.Context, *mcp.CallToolRequest, IngestDocumentInput,
) (*mcp.CallToolResult, IngestDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestDocumentInput) (
		*mcp.CallToolResult, IngestDocumentOutput, error,
	) {
		if input.FileID == "" {
			return nil, IngestDocumentOutput{}, fmt.Errorf("file_id is required")
		}

		res, err := lib.Ingest(ctx, input.FileID)
		if err != nil {
			return nil, IngestDocumentOutput{}, fmt.Errorf("failed to ingest document: %w", err)
		}

		out := IngestDocumentOutput{
			FileID: res.FileID,
			Source: res.Source,
			Chunks: res.Chunks,
			Status: string(res.Status),
		}
		if len(res.Entities) > 0 {
			out.Entities = make(map[string][]string, len(res.Entities))
			for label, values := range res.Entities {
				out.Entities[string(label)] = values
			}
		}
		return nil, out, nil
	}
}

// makeAnswerHandler creates the answer_question tool handler.
func makeAnswerHandler(lib Library) func(
	context.Context, *mcp.CallToolRequest, AnswerQuestionInput,
) (*mcp.CallToolResult, AnswerQuestionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AnswerQuestionInput) (
		*mcp.CallToolResult, AnswerQuestionOutput, error,
	) {
		res, err := lib.Answer(ctx, input.Question, input.FileID, input.TopK)
		if err != nil {
			return nil, AnswerQuestionOutput{}, fmt.Errorf("failed to answer question: %w", err)
		}

		sources := make([]SourceExcerpt, 0, len(res.Sources))
		for _, s := range res.Sources {
			sources = append(sources, SourceExcerpt{
				ID:     s.ID,
				Source: s.Source,
				Page:   s.Page,
				Text:   s.Text,
				Score:  s.Score,
			})
		}

		return nil, AnswerQuestionOutput{
			Answer:              res.Answer,
			Sources:             sources,
			Retrieved:           res.Retrieved,
			UnverifiedCitations: res.UnverifiedCitations,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(lib Library) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := lib.Documents(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		infos := make([]DocumentInfo, 0, len(docs))
		for _, d := range docs {
			infos = append(infos, documentInfo(d))
		}

		return nil, ListDocumentsOutput{
			Documents: infos,
			Count:     len(infos),
		}, nil
	}
}

// makeGetHandler creates the get_document tool handler.
// A missing document is reported with Found=false rather than an error.
func makeGetHandler(lib Library) func(
	context.Context, *mcp.CallToolRequest, GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetDocumentInput) (
		*mcp.CallToolResult, GetDocumentOutput, error,
	) {
		doc, err := lib.Document(ctx, input.FileID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, GetDocumentOutput{Found: false}, nil
			}
			return nil, GetDocumentOutput{}, fmt.Errorf("failed to get document: %w", err)
		}
		return nil, GetDocumentOutput{Document: documentInfo(*doc), Found: true}, nil
	}
}

func documentInfo(d registry.Document) DocumentInfo {
	info := DocumentInfo{
		FileID:     d.FileID,
		Filename:   d.Filename,
		SizeBytes:  d.SizeBytes,
		SHA256:     d.SHA256,
		Status:     string(d.Status),
		ChunkCount: d.ChunkCount,
		UploadedAt: d.UploadedAt.Format(time.RFC3339),
	}
	if d.IngestedAt != nil {
		info.IngestedAt = d.IngestedAt.Format(time.RFC3339)
	}
	return info
}
