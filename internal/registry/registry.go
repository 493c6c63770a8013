// Package registry records uploaded documents and their ingestion state in SQLite.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// ErrDocumentNotFound is returned when no document has the requested file id.
var ErrDocumentNotFound = errors.New("document not found")

// Status is the lifecycle state of a registered document.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusIngested Status = "ingested"
	StatusNoText   Status = "no_text"
	StatusFailed   Status = "failed"
)

// Document is one registered upload.
type Document struct {
	FileID     string     `json:"file_id"`
	Filename   string     `json:"filename"`
	SizeBytes  int64      `json:"size_bytes"`
	SHA256     string     `json:"sha256"`
	UploadedAt time.Time  `json:"uploaded_at"`
	IngestedAt *time.Time `json:"ingested_at,omitempty"`
	Status     Status     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
}

// Registry wraps *sql.DB with document helpers.
type Registry struct{ db *sql.DB }

// Open opens or creates the registry database and applies PRAGMAs.
func Open(path string) (*Registry, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	for _, p := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"} {
		// optional tuning; older builds may refuse
		_, _ = db.Exec(p)
	}
	return &Registry{db: db}, nil
}

// EnsureSchema creates the documents table if missing.
func (r *Registry) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            file_id TEXT PRIMARY KEY,
            filename TEXT NOT NULL,
            size_bytes INTEGER NOT NULL,
            sha256 TEXT NOT NULL,
            uploaded_at TEXT NOT NULL,
            ingested_at TEXT,
            status TEXT NOT NULL,
            chunk_count INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_documents_sha256 ON documents(sha256);`,
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Add registers a new upload with status uploaded.
func (r *Registry) Add(ctx context.Context, doc Document) error {
	if doc.Status == "" {
		doc.Status = StatusUploaded
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents(file_id, filename, size_bytes, sha256, uploaded_at, status, chunk_count)
         VALUES(?, ?, ?, ?, ?, ?, 0)`,
		doc.FileID, doc.Filename, doc.SizeBytes, doc.SHA256, formatTime(doc.UploadedAt), string(doc.Status))
	if err != nil {
		return fmt.Errorf("add document %s: %w", doc.FileID, err)
	}
	return nil
}

// SetStatus records the outcome of an ingestion attempt.
func (r *Registry) SetStatus(ctx context.Context, fileID string, status Status, chunkCount int, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, chunk_count = ?, ingested_at = ? WHERE file_id = ?`,
		string(status), chunkCount, formatTime(at), fileID)
	if err != nil {
		return fmt.Errorf("update document %s: %w", fileID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document %s: %w", fileID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, fileID)
	}
	return nil
}

const selectColumns = `SELECT file_id, filename, size_bytes, sha256, uploaded_at, ingested_at, status, chunk_count FROM documents`

// Get returns the document with fileID.
func (r *Registry) Get(ctx context.Context, fileID string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE file_id = ?`, fileID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, fileID)
	}
	return doc, err
}

// FindBySHA256 returns documents with identical content, oldest first.
func (r *Registry) FindBySHA256(ctx context.Context, sum string) ([]Document, error) {
	return r.query(ctx, selectColumns+` WHERE sha256 = ? ORDER BY uploaded_at, file_id`, sum)
}

// List returns every document, newest upload first.
func (r *Registry) List(ctx context.Context) ([]Document, error) {
	return r.query(ctx, selectColumns+` ORDER BY uploaded_at DESC, file_id`)
}

func (r *Registry) query(ctx context.Context, q string, args ...any) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*Document, error) {
	var (
		doc        Document
		uploadedAt string
		ingestedAt sql.NullString
		status     string
	)
	err := s.Scan(&doc.FileID, &doc.Filename, &doc.SizeBytes, &doc.SHA256, &uploadedAt, &ingestedAt, &status, &doc.ChunkCount)
	if err != nil {
		return nil, err
	}
	doc.Status = Status(status)
	if doc.UploadedAt, err = parseTime(uploadedAt); err != nil {
		return nil, err
	}
	if ingestedAt.Valid && ingestedAt.String != "" {
		t, err := parseTime(ingestedAt.String)
		if err != nil {
			return nil, err
		}
		doc.IngestedAt = &t
	}
	return &doc, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
