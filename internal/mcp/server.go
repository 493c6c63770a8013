package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	library Library
}

// Config holds server dependencies.
type Config struct {
	Library Library
	// Version is reported to clients; defaults to v0.1.0.
	Version string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "legal-rag-server",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Extract, chunk and index an uploaded PDF. Re-ingesting replaces the document's previous chunks. Returns the chunk count and extracted legal entities.",
	}, makeIngestHandler(cfg.Library))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a question strictly from the ingested documents. Every claim cites [document | page:N]; if the excerpts do not contain the answer the reply is 'Not found in the provided documents.'",
	}, makeAnswerHandler(cfg.Library))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List every uploaded document with its ingestion status and chunk count.",
	}, makeListHandler(cfg.Library))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get the registry entry for one uploaded document by file_id.",
	}, makeGetHandler(cfg.Library))

	return &Server{
		server:  server,
		library: cfg.Library,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
