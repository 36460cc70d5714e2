package uiout

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StatusInfo summarizes the state of the memory store and session store for
// the `status`/`stats` commands.
type StatusInfo struct {
	BaseDir       string    `json:"base_dir"`
	EntryCount    int       `json:"entry_count"`
	FTSRowCount   int       `json:"fts_row_count"`
	SessionCount  int       `json:"session_count"`
	StrategyCount int       `json:"strategy_count"`
	DBSizeBytes   int64     `json:"db_size_bytes"`
	LastRemember  time.Time `json:"last_remember,omitzero"`
	Healthy       bool      `json:"healthy"`
	HealthDetail  string    `json:"health_detail,omitempty"`
}

// Render prints StatusInfo as aligned human-readable text.
func (s StatusInfo) Render(w *Writer) {
	fmt.Fprintf(w.out, "base dir:        %s\n", s.BaseDir)
	fmt.Fprintf(w.out, "entries:         %d\n", s.EntryCount)
	fmt.Fprintf(w.out, "fts rows:        %d\n", s.FTSRowCount)
	fmt.Fprintf(w.out, "sessions:        %d\n", s.SessionCount)
	fmt.Fprintf(w.out, "strategies:      %d\n", s.StrategyCount)
	fmt.Fprintf(w.out, "db size:         %s\n", FormatBytes(s.DBSizeBytes))
	if !s.LastRemember.IsZero() {
		fmt.Fprintf(w.out, "last remember:   %s\n", s.LastRemember.Format(time.RFC3339))
	}
	status := "healthy"
	if !s.Healthy {
		status = "unhealthy: " + s.HealthDetail
	}
	fmt.Fprintf(w.out, "status:          %s\n", status)
}

// RenderJSON marshals StatusInfo as indented JSON.
func (s StatusInfo) RenderJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Emit writes StatusInfo in whichever format the Writer was constructed with.
func (s StatusInfo) Emit(w *Writer) error {
	if w.format == FormatJSON {
		raw, err := s.RenderJSON()
		if err != nil {
			return err
		}
		w.JSON(raw)
		return nil
	}
	s.Render(w)
	return nil
}

// Divider returns a horizontal rule sized for human-readable tables.
func Divider(width int) string {
	return strings.Repeat("-", width)
}
