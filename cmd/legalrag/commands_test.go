package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/legal-rag/internal/domain"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"ingest", "ask", "documents", "import-github", "reset"})
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"ingest needs a file", []string{"ingest"}},
		{"ask needs a question", []string{"ask"}},
		{"import-github needs owner and repo", []string{"import-github", "--path", "docs"}},
		{"reset needs force", []string{"reset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			assert.Error(t, root.Execute())
		})
	}
}

func TestPrintAnswer(t *testing.T) {
	score := 0.8123
	var buf bytes.Buffer
	printAnswer(&buf, &rag.AnswerResult{
		Answer: "Thirty days [lease | page:2].",
		Sources: []rag.Source{
			{Source: "lease", Page: 2, Score: &score},
			{Source: "lease", Page: 5},
		},
		UnverifiedCitations: []string{"[lease | page:9]"},
	})

	out := buf.String()
	assert.Contains(t, out, "Thirty days [lease | page:2].")
	assert.Contains(t, out, "[lease | page:2] score 0.812")
	assert.Contains(t, out, "[lease | page:5] score n/a")
	assert.Contains(t, out, "Unverified citations: [[lease | page:9]]")
}

func TestPrintAnswer_RefusalHasNoSources(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, &rag.AnswerResult{Answer: rag.RefusalText, Sources: []rag.Source{}})
	assert.Equal(t, rag.RefusalText+"\n", buf.String())
}

func TestPrintDocuments(t *testing.T) {
	var buf bytes.Buffer
	err := printDocuments(&buf, []registry.Document{{
		FileID:     "6f1c",
		Filename:   "lease.pdf",
		Status:     registry.StatusIngested,
		ChunkCount: 12,
		UploadedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "FILE ID")
	assert.Contains(t, string(lines[1]), "lease.pdf")
	assert.Contains(t, string(lines[1]), "2024-05-01T09:30:00Z")
}

func TestPrintIngest_EntitiesInCategoryOrder(t *testing.T) {
	res := &rag.IngestResult{
		FileID: "f1",
		Chunks: 3,
		Status: rag.StatusIngested,
		Entities: domain.EntitySet{
			domain.EntityLaw:    {"Labor Code"},
			domain.EntityMoney:  {"5000 USD"},
			domain.EntityPerson: {"John Smith"},
			domain.EntityOrg:    {},
			domain.EntityGPE:    {"New York"},
		},
	}

	for i := 0; i < 20; i++ {
		var buf bytes.Buffer
		printIngest(&buf, "contract.pdf", res)
		assert.Equal(t, "contract.pdf: ingested (file_id f1, 3 chunks)\n"+
			"  PERSON: [John Smith]\n"+
			"  MONEY: [5000 USD]\n"+
			"  GPE: [New York]\n"+
			"  LAW: [Labor Code]\n", buf.String())
	}
}
