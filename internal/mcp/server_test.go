package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bull/legal-rag/internal/domain"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLibrary struct {
	ingest    *rag.IngestResult
	answer    *rag.AnswerResult
	docs      []registry.Document
	err       error
	gotTopK   int
	gotFileID string
}

func (f *fakeLibrary) Ingest(ctx context.Context, fileID string) (*rag.IngestResult, error) {
	f.gotFileID = fileID
	if f.err != nil {
		return nil, f.err
	}
	return f.ingest, nil
}

func (f *fakeLibrary) Answer(ctx context.Context, question, fileID string, topK int) (*rag.AnswerResult, error) {
	f.gotFileID = fileID
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakeLibrary) Documents(ctx context.Context) ([]registry.Document, error) {
	return f.docs, f.err
}

func (f *fakeLibrary) Document(ctx context.Context, fileID string) (*registry.Document, error) {
	for i := range f.docs {
		if f.docs[i].FileID == fileID {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestIngestHandler(t *testing.T) {
	lib := &fakeLibrary{ingest: &rag.IngestResult{
		FileID: "f1",
		Source: "f1.pdf",
		Chunks: 4,
		Status: rag.StatusIngested,
		Entities: domain.EntitySet{
			domain.EntityOrg:    {"Acme Corp"},
			domain.EntityPerson: {},
		},
	}}

	_, out, err := makeIngestHandler(lib)(context.Background(), nil, IngestDocumentInput{FileID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, "f1", lib.gotFileID)
	assert.Equal(t, 4, out.Chunks)
	assert.Equal(t, "ingested", out.Status)
	assert.Equal(t, []string{"Acme Corp"}, out.Entities["ORG"])
}

func TestIngestHandler_MissingFileID(t *testing.T) {
	_, _, err := makeIngestHandler(&fakeLibrary{})(context.Background(), nil, IngestDocumentInput{})
	assert.Error(t, err)
}

func TestIngestHandler_WrapsError(t *testing.T) {
	lib := &fakeLibrary{err: domain.ErrNotFound}
	_, _, err := makeIngestHandler(lib)(context.Background(), nil, IngestDocumentInput{FileID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnswerHandler(t *testing.T) {
	score := 0.75
	lib := &fakeLibrary{answer: &rag.AnswerResult{
		Answer: "Thirty days [f1 | page:2].",
		Sources: []rag.Source{
			{ID: "f1:p2:c0", Source: "f1", Page: 2, Text: "thirty days", Score: &score},
			{ID: "f1:p3:c0", Source: "f1", Page: 3, Text: "other"},
		},
		Retrieved:           2,
		UnverifiedCitations: []string{},
	}}

	_, out, err := makeAnswerHandler(lib)(context.Background(), nil, AnswerQuestionInput{
		Question: "notice period?",
		FileID:   "f1",
		TopK:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, lib.gotTopK)
	assert.Equal(t, "f1", lib.gotFileID)
	assert.Equal(t, "Thirty days [f1 | page:2].", out.Answer)
	require.Len(t, out.Sources, 2)
	require.NotNil(t, out.Sources[0].Score)
	assert.InDelta(t, 0.75, *out.Sources[0].Score, 1e-9)
	assert.Nil(t, out.Sources[1].Score)
	assert.Equal(t, 2, out.Retrieved)
}

func TestListAndGetHandlers(t *testing.T) {
	uploaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ingested := uploaded.Add(time.Minute)
	lib := &fakeLibrary{docs: []registry.Document{
		{FileID: "a", Filename: "a.pdf", Status: registry.StatusIngested, ChunkCount: 3, UploadedAt: uploaded, IngestedAt: &ingested},
		{FileID: "b", Filename: "b.pdf", Status: registry.StatusUploaded, UploadedAt: uploaded},
	}}

	_, list, err := makeListHandler(lib)(context.Background(), nil, ListDocumentsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "2024-03-01T12:01:00Z", list.Documents[0].IngestedAt)
	assert.Empty(t, list.Documents[1].IngestedAt)

	_, got, err := makeGetHandler(lib)(context.Background(), nil, GetDocumentInput{FileID: "b"})
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "b.pdf", got.Document.Filename)

	_, missing, err := makeGetHandler(lib)(context.Background(), nil, GetDocumentInput{FileID: "zzz"})
	require.NoError(t, err)
	assert.False(t, missing.Found)
}

func TestListHandler_Error(t *testing.T) {
	lib := &fakeLibrary{err: errors.New("disk gone")}
	_, _, err := makeListHandler(lib)(context.Background(), nil, ListDocumentsInput{})
	assert.Error(t, err)
}

func connect(t *testing.T, lib Library) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	srv := NewServer(&Config{Library: lib})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, &fakeLibrary{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ingest_document", "answer_question", "list_documents", "get_document"}, names)
}

func TestServer_CallAnswerQuestion(t *testing.T) {
	lib := &fakeLibrary{answer: &rag.AnswerResult{
		Answer:              rag.RefusalText,
		Sources:             []rag.Source{},
		UnverifiedCitations: []string{},
	}}
	session := connect(t, lib)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "answer_question",
		Arguments: map[string]any{"question": "who is the landlord?"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out AnswerQuestionOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, rag.RefusalText, out.Answer)
	assert.Empty(t, out.Sources)
}

func TestServer_ToolErrorIsReported(t *testing.T) {
	lib := &fakeLibrary{err: domain.ErrServiceUnavailable}
	session := connect(t, lib)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ingest_document",
		Arguments: map[string]any{"file_id": "f1"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
