package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/legal-rag/internal/app"
	"github.com/bull/legal-rag/internal/domain"
	ghclient "github.com/bull/legal-rag/internal/github"
	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <pdf>...",
		Short: "Upload and ingest local PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				var failed int
				for _, path := range args {
					res, err := ingestFile(ctx, a, path)
					if err != nil {
						failed++
						fmt.Fprintf(out, "%s: FAILED: %v\n", path, err)
						continue
					}
					printIngest(out, path, res)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files failed", failed, len(args))
				}
				return nil
			})
		},
	}
}

func ingestFile(ctx context.Context, a *app.App, path string) (*rag.IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	up, err := a.Library.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	return a.Library.Ingest(ctx, up.FileID)
}

func printIngest(w io.Writer, path string, res *rag.IngestResult) {
	fmt.Fprintf(w, "%s: %s (file_id %s, %d chunks)\n", path, res.Status, res.FileID, res.Chunks)
	for _, label := range domain.EntityLabels {
		if values := res.Entities[label]; len(values) > 0 {
			fmt.Fprintf(w, "  %s: %v\n", label, values)
		}
	}
}

func newAskCmd() *cobra.Command {
	var (
		fileID string
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the ingested documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Library.Answer(ctx, args[0], fileID, topK)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				printAnswer(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&fileID, "file-id", "", "restrict retrieval to one document")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of excerpts to retrieve (default from DEFAULT_TOP_K)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printAnswer(w io.Writer, res *rag.AnswerResult) {
	fmt.Fprintln(w, res.Answer)
	if len(res.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, s := range res.Sources {
			score := "n/a"
			if s.Score != nil {
				score = fmt.Sprintf("%.3f", *s.Score)
			}
			fmt.Fprintf(w, "  [%s | page:%d] score %s\n", s.Source, s.Page, score)
		}
	}
	if len(res.UnverifiedCitations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Unverified citations: %v\n", res.UnverifiedCitations)
	}
}

func newDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				docs, err := a.Library.Documents(ctx)
				if err != nil {
					return err
				}
				return printDocuments(cmd.OutOrStdout(), docs)
			})
		},
	}
}

func printDocuments(w io.Writer, docs []registry.Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE ID\tFILENAME\tSTATUS\tCHUNKS\tUPLOADED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			d.FileID, d.Filename, d.Status, d.ChunkCount, d.UploadedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func newImportGitHubCmd() *cobra.Command {
	var owner, repo, path, ref string
	cmd := &cobra.Command{
		Use:   "import-github",
		Short: "Import and ingest every PDF under a GitHub repository path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				client, err := ghclient.NewClient(ctx, a.Config.GitHubToken)
				if err != nil {
					return fmt.Errorf("failed to create GitHub client: %w", err)
				}
				importer := ghclient.NewImporter(
					ghclient.NewFetcher(client, owner, repo, path, ref),
					a.Library,
					a.Logger,
				)

				results, err := importer.Import(ctx)
				out := cmd.OutOrStdout()
				for _, r := range results {
					if r.Err != nil {
						fmt.Fprintf(out, "%s: FAILED: %v\n", r.Path, r.Err)
						continue
					}
					fmt.Fprintf(out, "%s: %s (file_id %s, %d chunks)\n", r.Path, r.Status, r.FileID, r.Chunks)
				}
				fmt.Fprintf(out, "Imported %d file(s)\n", len(results))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "repository name")
	cmd.Flags().StringVar(&path, "path", "", "directory inside the repository")
	cmd.Flags().StringVar(&ref, "ref", "", "branch, tag or commit (default branch when empty)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func newResetCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the vector collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("reset deletes every indexed chunk; pass --force to confirm")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Index.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Collection reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}
