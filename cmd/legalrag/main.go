// Package main provides the legalrag CLI for ingesting and querying legal PDFs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bull/legal-rag/internal/app"
	"github.com/bull/legal-rag/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "legalrag",
		Short: "Legal document question answering",
		Long: `CLI for ingesting legal PDFs into the vector index and asking grounded questions.

Environment variables (also read from .env):
  QDRANT_HOST      Qdrant hostname (default: localhost)
  QDRANT_PORT      Qdrant gRPC port (default: 6334)
  VECTOR_BACKEND   qdrant or memory (default: qdrant)
  EMBED_API_KEY    Embedding API key (falls back to OPENAI_API_KEY)
  EMBED_BASE_URL   OpenAI-compatible embedding endpoint (optional)
  LLM_PROVIDER     ollama or openai (default: ollama)
  ENTITY_MODEL     Chat model for entity extraction (optional)
  GITHUB_TOKEN     GitHub token for import-github (optional)`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newIngestCmd(),
		newAskCmd(),
		newDocumentsCmd(),
		newImportGitHubCmd(),
		newResetCmd(),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withApp loads configuration, builds the application and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Build(ctx, cfg, cfg.NewLogger())
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.Close()

	return fn(ctx, a)
}
