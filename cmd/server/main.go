// Package main provides the HTTP and MCP server entry point for legal document Q&A.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bull/legal-rag/internal/api"
	"github.com/bull/legal-rag/internal/app"
	"github.com/bull/legal-rag/internal/config"
	mcpserver "github.com/bull/legal-rag/internal/mcp"
)

func main() {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	mcpServer := mcpserver.NewServer(&mcpserver.Config{Library: a.Library})

	mux := http.NewServeMux()
	api.NewServer(a.Library, a.Index, a.Generator, logger).Register(mux)
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(mcpServer, nil))

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.ServerMode {
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		log.Printf("Starting HTTP server on %s (API at /, MCP at /mcp, health at /health)", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode: MCP over stdin/stdout for local clients, HTTP in the background.
	go func() {
		log.Printf("Starting HTTP server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	log.Println("Starting legal document MCP server (stdio mode)...")
	if err := mcpServer.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
		a.Close()
		os.Exit(1)
	}
}
