package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bull/legal-rag/internal/library"
	"github.com/bull/legal-rag/internal/rag"
)

// Library stores and ingests PDFs.
type Library interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*library.UploadResult, error)
	Ingest(ctx context.Context, fileID string) (*rag.IngestResult, error)
}

// ImportResult reports one imported file.
type ImportResult struct {
	Path   string
	FileID string
	Chunks int
	Status rag.IngestStatus
	Err    error
}

// Importer copies repository PDFs into the library and ingests them.
type Importer struct {
	fetcher *Fetcher
	library Library
	logger  *slog.Logger
}

// NewImporter creates an importer.
func NewImporter(fetcher *Fetcher, lib Library, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{fetcher: fetcher, library: lib, logger: logger}
}

// Import uploads and ingests every PDF under the fetcher's base path.
// A failing file is recorded in its result and the import continues; the
// returned error joins every per-file failure.
func (im *Importer) Import(ctx context.Context) ([]ImportResult, error) {
	pdfs, err := im.fetcher.ListPDFs(ctx)
	if err != nil {
		return nil, err
	}
	im.logger.Info("Found PDFs", "count", len(pdfs), "path", im.fetcher.basePath)

	var (
		results []ImportResult
		errs    []error
	)
	for _, p := range pdfs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := im.importOne(ctx, p)
		if res.Err != nil {
			im.logger.Warn("Import failed", "path", p.Path, "error", res.Err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Path, res.Err))
		} else {
			im.logger.Info("Imported", "path", p.Path, "file_id", res.FileID, "chunks", res.Chunks, "status", res.Status)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (im *Importer) importOne(ctx context.Context, p RemotePDF) ImportResult {
	res := ImportResult{Path: p.Path}

	rc, err := im.fetcher.OpenPDF(ctx, p.Path)
	if err != nil {
		res.Err = err
		return res
	}
	defer rc.Close()

	up, err := im.library.Upload(ctx, p.Name, rc)
	if err != nil {
		res.Err = err
		return res
	}
	res.FileID = up.FileID

	ingested, err := im.library.Ingest(ctx, up.FileID)
	if err != nil {
		res.Err = err
		return res
	}
	res.Chunks = ingested.Chunks
	res.Status = ingested.Status
	return res
}
