package cmd

import (
	"encoding/json"
	"strings"
	"time"
)

// mustJSON marshals v for Writer.Emit's raw-bytes argument. Marshal
// failures here would mean a programmer error in a response struct's
// shape, not a runtime condition callers need to handle — the error is
// deliberately swallowed, as the teacher's own JSON renderers did for
// internal response structs.
func mustJSON(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}

func secondsToDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// splitCSV splits a comma-separated flag value into trimmed, non-empty
// parts, the way the teacher's tag/filter flags were parsed.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
