// Package gate applies the bounded-output cap that every orchestrator-facing
// CLI and MCP response passes through before it reaches the caller, the way the
// teacher's internal/output package funneled all rendering through one
// Writer choke point.
package gate

import (
	"fmt"
	"strings"
)

// DefaultBoundBytes is the default cap applied when the caller doesn't
// override it via configuration.
const DefaultBoundBytes = 4000

// Bound truncates s to at most limit bytes, appending a notice line that
// states how many of the original bytes are shown and names the narrower
// extract selectors, so a caller downstream can tell a truncated result
// from a complete one without comparing lengths itself.
func Bound(op string, s string, limit int) string {
	if limit <= 0 {
		limit = DefaultBoundBytes
	}
	if len(s) <= limit {
		return s
	}

	notice := func(shown int) string {
		return fmt.Sprintf("\n... [%s truncated: %d of %d bytes shown; narrow with --lines, --grep or --chunk-id]", op, shown, len(s))
	}
	// The notice for the kept prefix is never longer than notice(limit).
	budget := limit - len(notice(limit))
	if budget < 0 {
		budget = 0
	}

	cut := s[:budget]
	// Avoid splitting a multi-byte rune in two.
	for budget > 0 && !isValidCut(cut) {
		budget--
		cut = s[:budget]
	}

	return cut + notice(len(cut))
}

func isValidCut(s string) bool {
	return strings.ToValidUTF8(s, "") == s
}

// Result carries a bounded payload plus whether it was truncated, for
// callers (e.g. MCP tool handlers) that need to report truncation as a
// structured field rather than an inline notice string.
type Result struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
	FullBytes int    `json:"full_bytes,omitempty"`
}

// BoundResult is Bound but returns the truncation metadata separately
// instead of appending a notice line to the text.
func BoundResult(s string, limit int) Result {
	if limit <= 0 {
		limit = DefaultBoundBytes
	}
	if len(s) <= limit {
		return Result{Text: s, Truncated: false}
	}

	cut := s[:limit]
	for len(cut) > 0 && !isValidCut(cut) {
		cut = cut[:len(cut)-1]
	}

	return Result{Text: cut, Truncated: true, FullBytes: len(s)}
}
