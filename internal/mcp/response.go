package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// textResult wraps s as a single-text-content MCP result.
func textResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: s}}}
}

// jsonResult marshals data and wraps it as a single-text-content MCP
// result, per the teacher's createJSONResponse convention.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return textResult(string(b)), nil
}

// errorResult reports a tool-level failure inside the result object with
// IsError set, per the MCP spec: tool errors must not be raised as
// protocol-level errors, or the calling model never sees them and can't
// self-correct.
func errorResult(operation string, err error) (*mcp.CallToolResult, error) {
	res, marshalErr := jsonResult(map[string]any{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	res.IsError = true
	return res, nil
}
