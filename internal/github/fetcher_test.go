package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"testing"

	"github.com/bull/legal-rag/internal/library"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBodies = map[string]string{
	"docs/lease.pdf":   "%PDF-1.4 lease",
	"docs/sub/NDA.PDF": "%PDF-1.4 nda",
}

// fakeRepo serves the contents API for a small docs/ tree.
func fakeRepo(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()

	entry := func(typ, p, name string) map[string]any {
		e := map[string]any{"type": typ, "name": name, "path": p, "sha": "sha-" + name, "size": len(pdfBodies[p])}
		if typ == "file" {
			e["download_url"] = srv.URL + "/raw/" + p
		}
		return e
	}
	mux.HandleFunc("/repos/acme/contracts/contents/", func(w http.ResponseWriter, r *http.Request) {
		listing := map[string][]map[string]any{
			"docs": {
				entry("file", "docs/lease.pdf", "lease.pdf"),
				entry("file", "docs/README.md", "README.md"),
				entry("dir", "docs/sub", "sub"),
			},
			"docs/sub": {
				entry("file", "docs/sub/NDA.PDF", "NDA.PDF"),
			},
		}
		p, _ := url.PathUnescape(r.URL.Path[len("/repos/acme/contracts/contents/"):])
		w.Header().Set("Content-Type", "application/json")
		if items, ok := listing[p]; ok {
			_ = json.NewEncoder(w).Encode(items)
			return
		}
		if body, ok := pdfBodies[p]; ok {
			e := entry("file", p, path.Base(p))
			e["encoding"] = "base64"
			e["content"] = base64.StdEncoding.EncodeToString([]byte(body))
			_ = json.NewEncoder(w).Encode(e)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	mux.HandleFunc("/raw/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := pdfBodies[r.URL.Path[len("/raw/"):]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	gh := github.NewClient(nil)
	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = u
	return &Client{Client: gh}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, c.Repositories)
}

func TestFetcher_ListPDFs(t *testing.T) {
	srv := fakeRepo(t)
	f := NewFetcher(testClient(t, srv), "acme", "contracts", "/docs/", "")

	pdfs, err := f.ListPDFs(context.Background())
	require.NoError(t, err)
	require.Len(t, pdfs, 2)
	assert.Equal(t, "lease.pdf", pdfs[0].Path)
	assert.Equal(t, "sha-lease.pdf", pdfs[0].SHA)
	assert.Equal(t, "sub/NDA.PDF", pdfs[1].Path)
	assert.Equal(t, "NDA.PDF", pdfs[1].Name)
}

func TestFetcher_ListPDFs_MissingPath(t *testing.T) {
	srv := fakeRepo(t)
	f := NewFetcher(testClient(t, srv), "acme", "contracts", "nope", "")

	_, err := f.ListPDFs(context.Background())
	assert.Error(t, err)
}

func TestFetcher_OpenPDF(t *testing.T) {
	srv := fakeRepo(t)
	f := NewFetcher(testClient(t, srv), "acme", "contracts", "docs", "")

	rc, err := f.OpenPDF(context.Background(), "lease.pdf")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 lease", string(b))
}

type fakeLibrary struct {
	uploads    map[string]string
	failIngest string
}

func (l *fakeLibrary) Upload(ctx context.Context, filename string, r io.Reader) (*library.UploadResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if l.uploads == nil {
		l.uploads = map[string]string{}
	}
	l.uploads[filename] = string(b)
	return &library.UploadResult{FileID: "id-" + filename, Filename: filename}, nil
}

func (l *fakeLibrary) Ingest(ctx context.Context, fileID string) (*rag.IngestResult, error) {
	if fileID == l.failIngest {
		return nil, errors.New("model down")
	}
	return &rag.IngestResult{FileID: fileID, Chunks: 2, Status: rag.StatusIngested}, nil
}

func TestImporter_Import(t *testing.T) {
	srv := fakeRepo(t)
	lib := &fakeLibrary{}
	im := NewImporter(NewFetcher(testClient(t, srv), "acme", "contracts", "docs", ""), lib, nil)

	results, err := im.Import(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "%PDF-1.4 lease", lib.uploads["lease.pdf"])
	assert.Equal(t, "%PDF-1.4 nda", lib.uploads["NDA.PDF"])
	assert.Equal(t, "id-lease.pdf", results[0].FileID)
	assert.Equal(t, 2, results[0].Chunks)
	assert.Equal(t, rag.StatusIngested, results[1].Status)
}

func TestImporter_ContinuesAfterFailure(t *testing.T) {
	srv := fakeRepo(t)
	lib := &fakeLibrary{failIngest: "id-lease.pdf"}
	im := NewImporter(NewFetcher(testClient(t, srv), "acme", "contracts", "docs", ""), lib, nil)

	results, err := im.Import(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lease.pdf")
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}
