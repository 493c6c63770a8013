// Package uploads keeps uploaded PDF files on disk under generated file ids.
package uploads

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bull/legal-rag/internal/domain"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 64 << 20

var pdfMagic = []byte("%PDF-")

// Upload describes a stored file.
type Upload struct {
	FileID string
	Path   string
	Size   int64
	SHA256 string
}

// Store saves uploads as {dir}/{file_id}.pdf.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory if needed. A non-positive maxBytes
// selects DefaultMaxBytes.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Save streams r to a new file. The content must start with the PDF header;
// otherwise nothing is kept and ErrValidation is returned.
func (s *Store) Save(r io.Reader) (*Upload, error) {
	head := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !bytes.Equal(head[:n], pdfMagic) {
		return nil, fmt.Errorf("%w: file is not a PDF", domain.ErrValidation)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	hash := sha256.New()
	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.maxBytes+1-int64(n)))
	size, err := io.Copy(io.MultiWriter(tmp, hash), body)
	if err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrValidation, s.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close upload: %w", err)
	}

	fileID := uuid.NewString()
	path := filepath.Join(s.dir, fileID+".pdf")
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &Upload{
		FileID: fileID,
		Path:   path,
		Size:   size,
		SHA256: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Path returns where fileID is stored. Ids that are not UUIDs are rejected so
// they can never escape the upload directory.
func (s *Store) Path(fileID string) (string, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return "", fmt.Errorf("%w: invalid file_id %q", domain.ErrValidation, fileID)
	}
	return filepath.Join(s.dir, fileID+".pdf"), nil
}
