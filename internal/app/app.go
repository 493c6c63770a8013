// Package app wires the configured components into a library service.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/bull/legal-rag/internal/chunker"
	"github.com/bull/legal-rag/internal/config"
	"github.com/bull/legal-rag/internal/embedding"
	"github.com/bull/legal-rag/internal/entities"
	"github.com/bull/legal-rag/internal/library"
	"github.com/bull/legal-rag/internal/llm"
	"github.com/bull/legal-rag/internal/loader"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
	"github.com/bull/legal-rag/internal/storage"
	"github.com/bull/legal-rag/internal/uploads"
)

// App holds the wired components shared by the server and the CLI.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Backend   storage.Backend
	Index     *storage.Index
	Generator llm.Generator
	Registry  *registry.Registry
	Library   *library.Service
}

// Build connects to the vector store, opens the registry and assembles the
// pipeline. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Backend: backend}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	// The index owns the only embedder, so ingestion and queries always agree.
	embedClient, err := embedding.NewClient(cfg.EmbedAPIKey, cfg.EmbedBaseURL)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	a.Index = storage.NewIndex(a.Backend, embedding.NewEmbedder(embedClient, cfg.EmbedModel, 0), logger)

	chatClient, err := newChatClient(cfg)
	if err != nil {
		return err
	}
	a.Generator, err = newGenerator(cfg, chatClient)
	if err != nil {
		return err
	}

	ch, err := chunker.NewChunker(chunker.Config{
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		MinPageChars:  cfg.MinPageChars,
		MinChunkChars: cfg.MinChunkChars,
	}, logger)
	if err != nil {
		return err
	}

	pipeline := rag.NewPipeline(
		loader.NewLoader(logger),
		ch,
		a.Index,
		entities.New(ctx, chatClient, cfg.EntityModel, logger),
		a.Generator,
		rag.Config{
			DefaultTopK:     cfg.DefaultTopK,
			MaxTopK:         cfg.MaxTopK,
			MaxAnswerTokens: cfg.MaxAnswerTokens,
		},
		logger,
	)

	store, err := uploads.NewStore(cfg.UploadsDir, 0)
	if err != nil {
		return err
	}

	a.Registry, err = registry.Open(cfg.RegistryPath)
	if err != nil {
		return err
	}
	if err := a.Registry.EnsureSchema(ctx); err != nil {
		return err
	}

	a.Library = library.NewService(store, a.Registry, pipeline, logger)
	return nil
}

// Close releases the vector store connection and the registry.
func (a *App) Close() {
	if a.Registry != nil {
		if err := a.Registry.Close(); err != nil {
			a.Logger.Warn("Failed to close registry", "error", err)
		}
	}
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil {
			a.Logger.Warn("Failed to close vector store", "error", err)
		}
	}
}

func newBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	if cfg.VectorBackend == "memory" {
		return storage.NewMemoryStorage(), nil
	}

	store, err := storage.NewQdrantStorage(storage.QdrantConfig{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
		Dimension:  cfg.EmbedDimension,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return store, nil
}

// newChatClient returns nil when no OpenAI-compatible chat endpoint is configured.
func newChatClient(cfg *config.Config) (*openai.Client, error) {
	if cfg.LLMAPIKey == "" && cfg.LLMBaseURL == "" {
		return nil, nil
	}
	c, err := embedding.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return c.Client(), nil
}

func newGenerator(cfg *config.Config, chatClient *openai.Client) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case "openai":
		if chatClient == nil {
			return nil, fmt.Errorf("LLM_PROVIDER=openai needs LLM_API_KEY, OPENAI_API_KEY or LLM_BASE_URL")
		}
		return llm.NewOpenAIGenerator(chatClient, cfg.OpenAIChatModel), nil
	default:
		return llm.NewOllamaGenerator(llm.OllamaConfig{
			Host:  cfg.OllamaHost,
			Model: cfg.OllamaModel,
		}), nil
	}
}
