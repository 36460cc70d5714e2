package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Manual deserialization of req.Params.Arguments (always json.RawMessage)
// into a typed params struct per call, so unrecognized fields in a
// client's request never fail the call outright — grounded on the
// teacher's own handler convention of decoding CallToolRequest.Params.Arguments
// by hand rather than relying on generic binding.

type rememberParams struct {
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
	Source     string   `json:"source"`
	SourceName string   `json:"source_name"`
}

func (s *Server) handleRemember(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p rememberParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("remember", err)
	}

	id, err := s.memory.Remember(ctx, p.Content, p.Tags, p.Summary, p.Source, p.SourceName)
	if err != nil {
		return errorResult("remember", err)
	}
	return jsonResult(map[string]any{"success": true, "id": id})
}

type recallParams struct {
	Query string   `json:"query"`
	Tags  []string `json:"tags"`
	Max   int      `json:"max"`
}

func (s *Server) handleRecall(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p recallParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("recall", err)
	}

	text, hits, err := s.memory.Recall(ctx, p.Query, p.Tags, p.Max)
	if err != nil {
		return errorResult("recall", err)
	}
	return jsonResult(map[string]any{"success": true, "text": text, "hits": hits})
}

type listParams struct {
	Tags   []string `json:"tags"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p listParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("list", err)
	}

	text, hits, err := s.memory.List(ctx, p.Tags, p.Offset, p.Limit)
	if err != nil {
		return errorResult("list", err)
	}
	return jsonResult(map[string]any{"success": true, "text": text, "entries": hits})
}

type extractParams struct {
	ID           string `json:"id"`
	Grep         string `json:"grep"`
	Context      int    `json:"context"`
	ChunkID      string `json:"chunk_id"`
	ManifestPath string `json:"manifest_path"`
}

func (s *Server) handleExtract(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p extractParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("extract", err)
	}

	text, err := s.memory.MemoryExtract(ctx, p.ID, p.ChunkID, p.ManifestPath, p.Grep, p.Context)
	if err != nil {
		return errorResult("extract", err)
	}
	return jsonResult(map[string]any{"success": true, "text": text})
}

type forgetParams struct {
	ID string `json:"id"`
}

func (s *Server) handleForget(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p forgetParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("forget", err)
	}

	if err := s.memory.Forget(ctx, p.ID); err != nil {
		return errorResult("forget", err)
	}
	return jsonResult(map[string]any{"success": true, "id": p.ID})
}
