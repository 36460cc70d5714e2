// Package session implements the analysis-session store: per-query state
// that survives across the many short-lived CLI/MCP invocations a single
// recursive analysis makes, the way the teacher's session package kept
// named index sessions alive across process boundaries — repurposed here
// to hold a query's iteration log, keyed results, and last chunk manifest
// instead of index bookkeeping.
package session

import (
	"time"

	"github.com/mnemo-run/mnemo/internal/chunk"
)

// Status is the lifecycle state of an analysis session.
type Status string

const (
	StatusActive    Status = "active"
	StatusFinalized Status = "finalized"
)

// Iteration is one append-only record of a result write.
type Iteration struct {
	Timestamp float64 `json:"t"`
	Key       string  `json:"key"`
	Value     string  `json:"value"`
}

// AnalysisSession is the persisted state of one analysis query: the
// original query and target, an append-only iteration log, a keyed
// results dictionary (last write wins per key), the last stored chunk
// manifest, and a lifecycle status.
type AnalysisSession struct {
	ID          string            `json:"id"`
	Query       string            `json:"query"`
	Target      string            `json:"target"`
	CreatedAt   time.Time         `json:"created_at"`
	Iterations  []Iteration       `json:"iterations"`
	Results     map[string]string `json:"results"`
	Manifest    *chunk.Manifest   `json:"manifest,omitempty"`
	FinalAnswer *string           `json:"final_answer,omitempty"`
	Status      Status            `json:"status"`

	// Dir is the directory this session is stored under. Computed, not
	// persisted.
	Dir string `json:"-"`
}

// New creates a fresh active session with the given id, query, and target.
func New(id, query, target string) *AnalysisSession {
	return &AnalysisSession{
		ID:         id,
		Query:      query,
		Target:     target,
		CreatedAt:  time.Now(),
		Iterations: []Iteration{},
		Results:    map[string]string{},
		Status:     StatusActive,
	}
}

// IsFinalized reports whether the session no longer accepts result writes.
func (s *AnalysisSession) IsFinalized() bool {
	return s.Status == StatusFinalized
}
