package github

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

// RemotePDF is a PDF file found under the fetcher's base path.
type RemotePDF struct {
	Path string // Relative to the base path
	Name string
	SHA  string // Git blob SHA
	Size int
}

// Fetcher lists and downloads PDFs from one repository directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
	ref      string
}

// NewFetcher creates a fetcher. An empty ref means the default branch.
func NewFetcher(client *Client, owner, repo, basePath, ref string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: strings.Trim(basePath, "/"),
		ref:      ref,
	}
}

func (f *Fetcher) options() *github.RepositoryContentGetOptions {
	if f.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: f.ref}
}

// ListPDFs recursively lists every .pdf file under the base path.
func (f *Fetcher) ListPDFs(ctx context.Context) ([]RemotePDF, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]RemotePDF, error) {
	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.options())
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	var pdfs []RemotePDF
	for _, item := range dirContents {
		name := item.GetName()
		if name == "" {
			continue
		}
		itemRelPath := path.Join(relativePath, name)

		switch item.GetType() {
		case "file":
			if strings.EqualFold(path.Ext(name), ".pdf") {
				pdfs = append(pdfs, RemotePDF{
					Path: itemRelPath,
					Name: name,
					SHA:  item.GetSHA(),
					Size: item.GetSize(),
				})
			}
		case "dir":
			sub, err := f.listRecursive(ctx, path.Join(fullPath, name), itemRelPath)
			if err != nil {
				return nil, err
			}
			pdfs = append(pdfs, sub...)
		}
	}
	return pdfs, nil
}

// OpenPDF streams the content of a PDF returned by ListPDFs.
// The caller must close the reader.
func (f *Fetcher) OpenPDF(ctx context.Context, relativePath string) (io.ReadCloser, error) {
	fullPath := path.Join(f.basePath, relativePath)

	// DownloadContents also handles files above the 1 MB contents API limit.
	rc, _, err := f.client.Repositories.DownloadContents(ctx, f.owner, f.repo, fullPath, f.options())
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fullPath, err)
	}
	return rc, nil
}
