// Package config reads server and pipeline settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bull/legal-rag/internal/domain"
)

// Config holds every setting read from the environment.
type Config struct {
	// Vector index
	VectorBackend  string // "qdrant" or "memory"
	CollectionName string
	QdrantHost     string
	QdrantPort     int
	QdrantAPIKey   string

	// Embeddings (OpenAI-compatible endpoint)
	EmbedModel     string
	EmbedBaseURL   string
	EmbedAPIKey    string
	EmbedDimension int

	// Answer generation
	LLMProvider     string // "ollama" or "openai"
	OllamaHost      string
	OllamaModel     string
	OpenAIChatModel string
	LLMBaseURL      string
	LLMAPIKey       string
	MaxAnswerTokens int

	// Entity extraction; empty model disables it
	EntityModel string

	// Chunking
	ChunkSize     int
	ChunkOverlap  int
	MinPageChars  int
	MinChunkChars int

	// Retrieval
	DefaultTopK int
	MaxTopK     int

	// Storage
	DataDir      string
	UploadsDir   string
	RegistryPath string

	// Server
	Port       string
	ServerMode bool
	LogLevel   string
	LogFormat  string

	GitHubToken string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	// Missing .env is normal in production
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")
	openAIKey := os.Getenv("OPENAI_API_KEY")

	cfg := &Config{
		VectorBackend:  strings.ToLower(getEnv("VECTOR_BACKEND", "qdrant")),
		CollectionName: getEnv("COLLECTION_NAME", "legal_documents"),
		QdrantHost:     getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:     getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:   os.Getenv("QDRANT_API_KEY"),

		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-3-small"),
		EmbedBaseURL:   os.Getenv("EMBED_BASE_URL"),
		EmbedAPIKey:    getEnv("EMBED_API_KEY", openAIKey),
		EmbedDimension: getEnvInt("EMBED_DIMENSION", 1536),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://127.0.0.1:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.1:8b"),
		OpenAIChatModel: getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:       getEnv("LLM_API_KEY", openAIKey),
		MaxAnswerTokens: getEnvInt("MAX_ANSWER_TOKENS", 512),

		EntityModel: os.Getenv("ENTITY_MODEL"),

		ChunkSize:     getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 200),
		MinPageChars:  getEnvInt("MIN_PAGE_CHARS", 50),
		MinChunkChars: getEnvInt("MIN_CHUNK_CHARS", 100),

		DefaultTopK: getEnvInt("DEFAULT_TOP_K", 10),
		MaxTopK:     getEnvInt("MAX_TOP_K", 30),

		DataDir:      dataDir,
		UploadsDir:   getEnv("UPLOADS_DIR", filepath.Join(dataDir, "uploads")),
		RegistryPath: getEnv("REGISTRY_PATH", filepath.Join(dataDir, "registry.db")),

		Port:       getEnv("PORT", "8000"),
		ServerMode: getEnv("SERVER_MODE", "true") == "true",
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:  strings.ToLower(getEnv("LOG_FORMAT", "text")),

		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", domain.ErrValidation, c.ChunkSize)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", domain.ErrValidation, c.ChunkOverlap)
	case c.MinPageChars <= 0 || c.MinChunkChars <= 0:
		return fmt.Errorf("%w: MIN_PAGE_CHARS and MIN_CHUNK_CHARS must be positive", domain.ErrValidation)
	case c.DefaultTopK <= 0 || c.MaxTopK < c.DefaultTopK:
		return fmt.Errorf("%w: need 0 < DEFAULT_TOP_K <= MAX_TOP_K", domain.ErrValidation)
	case c.EmbedDimension <= 0:
		return fmt.Errorf("%w: EMBED_DIMENSION must be positive", domain.ErrValidation)
	case c.VectorBackend != "qdrant" && c.VectorBackend != "memory":
		return fmt.Errorf("%w: unknown VECTOR_BACKEND %q", domain.ErrValidation, c.VectorBackend)
	case c.LLMProvider != "ollama" && c.LLMProvider != "openai":
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", domain.ErrValidation, c.LLMProvider)
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultValue
}
