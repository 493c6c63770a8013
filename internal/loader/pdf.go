// Package loader extracts per-page text from PDF files.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bull/legal-rag/internal/domain"
)

// Loader opens PDFs and yields the text of every non-blank page.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a PDF loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the PDF at path. Blank pages are omitted; page numbers keep the
// physical page order, so omitted pages leave gaps.
// If documentID is empty the file name without extension is used.
//
// Returns domain.ErrNotFound when the file does not exist and
// domain.ErrEmptyDocument when the PDF has zero pages.
func (l *Loader) Load(path, documentID string) ([]domain.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: pdf %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrValidation, path)
	}

	if documentID == "" {
		documentID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	return l.read(f, info.Size(), documentID)
}

// read parses the PDF. The parser panics on some malformed inputs, which are
// reported as validation errors.
func (l *Loader) read(f *os.File, size int64, documentID string) (pages []domain.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrValidation, r)
		}
	}()

	reader, err := pdf.NewReader(f, size)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", domain.ErrValidation, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", domain.ErrEmptyDocument)
	}

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("Failed to extract page text", "document_id", documentID, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, domain.Page{
			PageNumber: i,
			Text:       text,
			DocumentID: documentID,
		})
	}

	l.logger.Info("Loaded pdf", "document_id", documentID, "pages", numPages, "text_pages", len(pages))
	return pages, nil
}
