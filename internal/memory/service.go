// Package memory is the high-level memory service: remember/recall/
// memory_extract/forget/deduplicate atop internal/memorydb, per
// spec.md §4.7. Shaped like a thin orchestration layer — validate,
// delegate to the store, annotate the result — the way the teacher's
// internal/search/engine.go sat atop its BM25 index.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mnemo-run/mnemo/internal/errs"
	"github.com/mnemo-run/mnemo/internal/extract"
	"github.com/mnemo-run/mnemo/internal/gate"
	"github.com/mnemo-run/mnemo/internal/memorydb"
)

// SizeCategory classifies an entry by its character count so the
// orchestrator can judge how expensive it would be to inspect in full.
type SizeCategory string

const (
	SizeSmall  SizeCategory = "small"
	SizeMedium SizeCategory = "medium"
	SizeLarge  SizeCategory = "large"
	SizeHuge   SizeCategory = "huge"
)

// classify returns the size category for a character count, per
// spec.md §4.7's small<2048, medium<10240, large<51200, else huge.
func classify(charCount int) SizeCategory {
	switch {
	case charCount < 2048:
		return SizeSmall
	case charCount < 10240:
		return SizeMedium
	case charCount < 51200:
		return SizeLarge
	default:
		return SizeHuge
	}
}

// DeduplicateWindow is the default interval within which a repeated
// archive of the same session is collapsed rather than duplicated.
const DeduplicateWindow = 60 * time.Second

// Service wraps a memorydb.DB with remember/recall/forget semantics.
type Service struct {
	db     *memorydb.DB
	window time.Duration
}

// New wraps db with the default deduplication window.
func New(db *memorydb.DB) *Service {
	return &Service{db: db, window: DeduplicateWindow}
}

// WithWindow returns a copy of s using a non-default deduplication window.
func (s *Service) WithWindow(window time.Duration) *Service {
	return &Service{db: s.db, window: window}
}

// Remember stores content as a new entry, generating tags and a summary
// deterministically when they are not supplied.
func (s *Service) Remember(ctx context.Context, content string, tags []string, summary, source, sourceName string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", errs.InvalidArgument("ERR_EMPTY_CONTENT", "content must not be empty")
	}
	if source == "" {
		return "", errs.InvalidArgument("ERR_MISSING_SOURCE", "source is required")
	}

	if len(tags) == 0 {
		tags = keywordTags(content, 6)
		if len(tags) > 6 {
			tags = tags[:6]
		}
	}
	if summary == "" {
		summary = firstLineSummary(content)
	}

	entry := memorydb.Entry{
		ID:         memorydb.NewEntryID(),
		Content:    content,
		Summary:    summary,
		Tags:       tags,
		Source:     source,
		SourceName: sourceName,
		CreatedAt:  time.Now(),
		CharCount:  len(content),
	}
	if err := s.db.Insert(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// firstLineSummary returns the first non-empty line of content,
// truncated to roughly 80 characters.
func firstLineSummary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 80 {
			return line[:80]
		}
		return line
	}
	return ""
}

// RecallHit is one search result annotated with a size category.
type RecallHit struct {
	ID        string       `json:"id"`
	Summary   string       `json:"summary"`
	Tags      []string     `json:"tags"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"created_at"`
	CharCount int          `json:"char_count"`
	Size      SizeCategory `json:"size"`
	Rank      float64      `json:"rank"`
}

// Recall searches the store and returns a bounded, orchestrator-facing
// text rendering of the top max hits (default 20 when max <= 0).
func (s *Service) Recall(ctx context.Context, query string, tags []string, max int) (string, []RecallHit, error) {
	if max <= 0 {
		max = 20
	}
	searchHits, err := s.db.Search(ctx, query, tags, max)
	if err != nil {
		return "", nil, err
	}

	hits := make([]RecallHit, 0, len(searchHits))
	for _, h := range searchHits {
		hits = append(hits, RecallHit{
			ID:        h.Entry.ID,
			Summary:   h.Entry.Summary,
			Tags:      h.Entry.Tags,
			Source:    h.Entry.Source,
			CreatedAt: h.Entry.CreatedAt,
			CharCount: h.Entry.CharCount,
			Size:      classify(h.Entry.CharCount),
			Rank:      h.Rank,
		})
	}

	return gate.Bound("recall", renderHits(hits), gate.DefaultBoundBytes), hits, nil
}

func renderHits(hits []RecallHit) string {
	if len(hits) == 0 {
		return "No matches"
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "%s [%s] (%s, %d chars) tags=%s — %s\n",
			h.ID, h.Size, h.CreatedAt.Format(time.RFC3339), h.CharCount, strings.Join(h.Tags, ","), h.Summary)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// MemoryExtract returns content from entry id: the whole entry content
// when no options are given (intended for a subordinate agent, not the
// orchestrator directly), the result of a grep pass when grep is set,
// or a chunk lookup in manifestPath when chunkID is set. grep and
// chunkID are mutually exclusive.
func (s *Service) MemoryExtract(ctx context.Context, id, chunkID, manifestPath, grep string, context int) (string, error) {
	if chunkID != "" && grep != "" {
		return "", errs.InvalidArgument("ERR_CONFLICTING_MODE", "chunk_id and grep are mutually exclusive")
	}

	content, err := s.db.GetContent(ctx, id)
	if err != nil {
		return "", err
	}

	switch {
	case grep != "":
		matches, err := extract.GrepText(content, grep, context)
		if err != nil {
			return "", err
		}
		return gate.Bound("memory_extract", extract.RenderGrep(matches), gate.DefaultBoundBytes), nil
	case chunkID != "":
		if manifestPath == "" {
			return "", errs.InvalidArgument("ERR_MISSING_MANIFEST", "chunk_id requires manifest_path")
		}
		text, err := extract.ByChunkIDInText(content, chunkID, manifestPath)
		if err != nil {
			return "", err
		}
		return gate.Bound("memory_extract", text, gate.DefaultBoundBytes), nil
	default:
		return content, nil
	}
}

// Forget hard-deletes entry id. Per the Open Question decision recorded
// in DESIGN.md, memory entries are hard-deleted, not tombstoned.
func (s *Service) Forget(ctx context.Context, id string) error {
	return s.db.Delete(ctx, id)
}

// ListHit is one entry in a chronological listing, annotated with a size
// category the same way a RecallHit is.
type ListHit struct {
	ID        string       `json:"id"`
	Summary   string       `json:"summary"`
	Tags      []string     `json:"tags"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"created_at"`
	CharCount int          `json:"char_count"`
	Size      SizeCategory `json:"size"`
}

// List returns entries in chronological order, optionally filtered by
// tag, as a bounded orchestrator-facing text rendering plus the
// structured hits.
func (s *Service) List(ctx context.Context, tags []string, offset, limit int) (string, []ListHit, error) {
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.db.List(ctx, tags, offset, limit)
	if err != nil {
		return "", nil, err
	}

	hits := make([]ListHit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, ListHit{
			ID:        e.ID,
			Summary:   e.Summary,
			Tags:      e.Tags,
			Source:    e.Source,
			CreatedAt: e.CreatedAt,
			CharCount: e.CharCount,
			Size:      classify(e.CharCount),
		})
	}

	return gate.Bound("memory_list", renderListHits(hits), gate.DefaultBoundBytes), hits, nil
}

func renderListHits(hits []ListHit) string {
	if len(hits) == 0 {
		return "No entries"
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "%s [%s] (%s, %d chars) tags=%s — %s\n",
			h.ID, h.Size, h.CreatedAt.Format(time.RFC3339), h.CharCount, strings.Join(h.Tags, ","), h.Summary)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Tags returns the tag histogram across all entries, bounded-output.
func (s *Service) Tags(ctx context.Context) (string, map[string]int, error) {
	hist, err := s.db.TagHistogram(ctx)
	if err != nil {
		return "", nil, err
	}

	if len(hist) == 0 {
		return "No tags recorded", hist, nil
	}

	tags := make([]string, 0, len(hist))
	for t := range hist {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if hist[tags[i]] != hist[tags[j]] {
			return hist[tags[i]] > hist[tags[j]]
		}
		return tags[i] < tags[j]
	})

	var b strings.Builder
	for _, t := range tags {
		fmt.Fprintf(&b, "%s (%d)\n", t, hist[t])
	}
	return gate.Bound("memory_tags", strings.TrimSuffix(b.String(), "\n"), gate.DefaultBoundBytes), hist, nil
}

// ContentHash returns the hash Deduplicate keys entries on.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Deduplicate implements spec.md §4.7's session-archive collapsing against
// the most recent entry tagged with sessionID. An identical content hash
// is a no-op that returns the existing id, at any age. Within the
// service's window, strictly longer content (the transcript grew)
// replaces the older entry, and other changed content leaves the existing
// entry in place and returns its id. Outside the window, changed content
// is stored as a new entry alongside the older one. With no prior entry
// it stores content as a new entry.
func (s *Service) Deduplicate(ctx context.Context, sessionID, content, source, sourceName string) (string, error) {
	hash := ContentHash(content)
	sessionTag := "session:" + sessionID

	existing, err := s.db.List(ctx, []string{sessionTag}, 0, 1)
	if err != nil {
		return "", err
	}

	if len(existing) > 0 {
		prior := existing[0]
		if time.Since(prior.CreatedAt) < s.window {
			if ContentHash(prior.Content) == hash {
				return prior.ID, nil
			}
			if len(content) > len(prior.Content) {
				if err := s.db.Delete(ctx, prior.ID); err != nil {
					return "", err
				}
			} else {
				return prior.ID, nil
			}
		} else if ContentHash(prior.Content) == hash {
			return prior.ID, nil
		}
	}

	tags := append(keywordTags(content, 5), sessionTag)
	return s.Remember(ctx, content, tags, "", source, sourceName)
}
