// Package mcp implements mnemo's remote-tool surface, per spec.md §6: a
// JSON-RPC-style tool server exposing five operations that mirror
// internal/memory.Service's verbs (remember, recall, list, extract,
// forget), serving over stdio via the Model Context Protocol. Grounded
// on the teacher's own use of github.com/modelcontextprotocol/go-sdk
// for tool registration and request handling, retargeted from the
// teacher's code-search tool surface onto the memory service's.
package mcp

import (
	"context"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mnemo-run/mnemo/internal/memory"
)

// Server wraps a memory.Service with an MCP tool surface.
type Server struct {
	server *mcp.Server
	memory *memory.Service
	logger *slog.Logger
}

// New builds a Server exposing remember/recall/list/extract/forget over
// svc. name and version identify the server to MCP clients.
func New(svc *memory.Service, name, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		memory: svc,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Run serves the MCP tool surface over stdio until ctx is canceled or
// the transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "remember",
		Description: "Store a piece of text in the memory store, optionally with tags and a summary. Tags and summary are generated deterministically when omitted.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"content": {
					Type:        "string",
					Description: "The text to remember.",
				},
				"tags": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Optional tags. Generated from content when omitted.",
				},
				"summary": {
					Type:        "string",
					Description: "Optional one-line summary. Generated from the first line of content when omitted.",
				},
				"source": {
					Type:        "string",
					Description: "Caller-supplied provenance label, e.g. \"conversation\" or \"analysis\".",
				},
				"source_name": {
					Type:        "string",
					Description: "Optional human-readable name for the source, e.g. a session or file name.",
				},
			},
			Required: []string{"content", "source"},
		},
	}, s.handleRemember)

	s.server.AddTool(&mcp.Tool{
		Name:        "recall",
		Description: "Search the memory store and return a bounded, ranked list of matching entries.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Full-text search query.",
				},
				"tags": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Restrict results to entries carrying all of these tags.",
				},
				"max": {
					Type:        "integer",
					Description: "Maximum number of hits to return (default 20).",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleRecall)

	s.server.AddTool(&mcp.Tool{
		Name:        "list",
		Description: "List memory entries in chronological order, optionally filtered by tag.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tags": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Restrict results to entries carrying all of these tags.",
				},
				"offset": {
					Type:        "integer",
					Description: "Number of entries to skip (default 0).",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of entries to return (default 20).",
				},
			},
		},
	}, s.handleList)

	s.server.AddTool(&mcp.Tool{
		Name:        "extract",
		Description: "Return content from a memory entry: the full entry when no options are given, a grep pass over it, or a chunk lookup against a manifest. grep and chunk_id are mutually exclusive.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Description: "Memory entry id.",
				},
				"grep": {
					Type:        "string",
					Description: "Regular expression to search the entry content for.",
				},
				"context": {
					Type:        "integer",
					Description: "Lines of context around each grep match (default 0).",
				},
				"chunk_id": {
					Type:        "string",
					Description: "Chunk id to look up in manifest_path.",
				},
				"manifest_path": {
					Type:        "string",
					Description: "Path to the chunk manifest, required when chunk_id is set.",
				},
			},
			Required: []string{"id"},
		},
	}, s.handleExtract)

	s.server.AddTool(&mcp.Tool{
		Name:        "forget",
		Description: "Permanently delete a memory entry by id.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Description: "Memory entry id to delete.",
				},
			},
			Required: []string{"id"},
		},
	}, s.handleForget)
}
