// Package strategy is the learned-patterns document and append-only
// performance log, per spec.md §4.9. The patterns document is purely
// textual — the core never parses it, only round-trips it verbatim.
// Grounded on internal/session/storage.go's atomic temp-file-then-rename
// write (the same single-writer-safety posture, applied here to a
// markdown document instead of session state JSON).
package strategy

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mnemo-run/mnemo/internal/gate"
)

const (
	patternsFileName   = "learned_patterns.md"
	performanceLogName = "performance.jsonl"
)

// PerfRecord is one append-only performance-log entry: one per recall
// session.
type PerfRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Query           string    `json:"query"`
	SearchTerms     []string  `json:"search_terms"`
	EntriesFound    int       `json:"entries_found"`
	EntriesRelevant int       `json:"entries_relevant"`
	Subagents       int       `json:"subagents"`
	Notes           string    `json:"notes,omitempty"`
}

// Store is a directory holding the learned-patterns document and the
// performance log.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create strategy directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) patternsPath() string {
	return filepath.Join(s.dir, patternsFileName)
}

func (s *Store) performancePath() string {
	return filepath.Join(s.dir, performanceLogName)
}

// Show returns the learned-patterns document verbatim, bounded-output.
// A missing document is not an error — it returns an empty document
// notice instead.
func (s *Store) Show() (string, error) {
	data, err := os.ReadFile(s.patternsPath())
	if os.IsNotExist(err) {
		return "No learned patterns recorded yet.", nil
	}
	if err != nil {
		return "", fmt.Errorf("read learned patterns: %w", err)
	}
	return gate.Bound("strategy_show", string(data), gate.DefaultBoundBytes), nil
}

// AppendPattern appends a free-text pattern note to the learned-patterns
// document, writing via a temp-file-then-rename so a concurrent reader
// never observes a partial document. Concurrent appends are
// last-writer-wins: each append reads the current document, appends,
// and atomically replaces it, so two racing appends can still clobber
// one another — acceptable per spec.md's own stated source behavior.
func (s *Store) AppendPattern(note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}

	existing, err := os.ReadFile(s.patternsPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read learned patterns: %w", err)
	}

	var b strings.Builder
	if len(existing) > 0 {
		b.Write(existing)
		if !strings.HasSuffix(string(existing), "\n") {
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "- %s (%s)\n", note, time.Now().Format(time.RFC3339))

	return atomicWrite(s.patternsPath(), []byte(b.String()))
}

// Perf appends a performance record with the current timestamp.
func (s *Store) Perf(query string, searchTerms []string, entriesFound, entriesRelevant, subagents int, notes string) error {
	rec := PerfRecord{
		Timestamp:       time.Now(),
		Query:           query,
		SearchTerms:     searchTerms,
		EntriesFound:    entriesFound,
		EntriesRelevant: entriesRelevant,
		Subagents:       subagents,
		Notes:           notes,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal performance record: %w", err)
	}

	f, err := os.OpenFile(s.performancePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open performance log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append performance record: %w", err)
	}
	return f.Sync()
}

// Log returns the last n performance records, most recent last,
// bounded-output. Malformed lines are skipped.
func (s *Store) Log(n int) (string, error) {
	records, err := s.readPerfRecords()
	if err != nil {
		return "", err
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}

	if len(records) == 0 {
		return "No performance records yet.", nil
	}

	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s  query=%q found=%d relevant=%d subagents=%d terms=%s%s\n",
			r.Timestamp.Format(time.RFC3339), r.Query, r.EntriesFound, r.EntriesRelevant,
			r.Subagents, strings.Join(r.SearchTerms, ","), notesSuffix(r.Notes))
	}

	return gate.Bound("strategy_log", strings.TrimSuffix(b.String(), "\n"), gate.DefaultBoundBytes), nil
}

func notesSuffix(notes string) string {
	if notes == "" {
		return ""
	}
	return " notes=" + notes
}

func (s *Store) readPerfRecords() ([]PerfRecord, error) {
	f, err := os.Open(s.performancePath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open performance log: %w", err)
	}
	defer f.Close()

	var records []PerfRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec PerfRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read performance log: %w", err)
	}
	return records, nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
