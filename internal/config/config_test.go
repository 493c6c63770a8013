package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/legal-rag/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("UPLOADS_DIR", "")
	t.Setenv("REGISTRY_PATH", "")
	t.Setenv("COLLECTION_NAME", "")
	t.Setenv("DEFAULT_TOP_K", "")
	t.Setenv("MAX_TOP_K", "")
	t.Setenv("VECTOR_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legal_documents", cfg.CollectionName)
	assert.Equal(t, "qdrant", cfg.VectorBackend)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 50, cfg.MinPageChars)
	assert.Equal(t, 100, cfg.MinChunkChars)
	assert.Equal(t, 10, cfg.DefaultTopK)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, "data/uploads", cfg.UploadsDir)
	assert.Equal(t, "data/registry.db", cfg.RegistryPath)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("QDRANT_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 6334, cfg.QdrantPort, "unparsable ints fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ChunkSize:      1000,
			ChunkOverlap:   200,
			MinPageChars:   50,
			MinChunkChars:  100,
			DefaultTopK:    10,
			MaxTopK:        30,
			EmbedDimension: 1536,
			LLMProvider:    "ollama",
			VectorBackend:  "qdrant",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = 1000 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"zero size", func(c *Config) { c.ChunkSize = 0 }},
		{"top k above max", func(c *Config) { c.DefaultTopK = 40 }},
		{"unknown provider", func(c *Config) { c.LLMProvider = "bard" }},
		{"unknown backend", func(c *Config) { c.VectorBackend = "chroma" }},
		{"zero dimension", func(c *Config) { c.EmbedDimension = 0 }},
		{"zero page minimum", func(c *Config) { c.MinPageChars = 0 }},
		{"zero chunk minimum", func(c *Config) { c.MinChunkChars = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrValidation)
		})
	}
}
