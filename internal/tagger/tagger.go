// Package tagger implements the semantic tagger described in spec.md
// §4.10: request 5-10 topical tags for a transcript from an external
// LLM caller, fall back to keyword extraction when that call fails or
// is unavailable, and merge the result with a fixed set of base tags.
// Grounded on internal/memory/service.go's own keyword-tag fallback
// (tokenizer.go) for the extraction half, and on the teacher's
// project-name detection (formerly internal/mcp/project.go) for the
// project base tag.
package tagger

import (
	"context"
	"time"

	"github.com/mnemo-run/mnemo/internal/errs"
)

// Caller requests topical tags for a transcript from an external LLM.
// The core never invokes an LLM itself — per spec.md §9's scope
// boundary, that belongs to the orchestrator — so Tag takes a Caller
// the orchestrator supplies, and Caller may be nil to skip straight to
// the keyword fallback.
type Caller interface {
	// RequestTags returns 5-10 topical tags for transcript, or an error
	// if the call fails or the collaborator is unavailable.
	RequestTags(ctx context.Context, transcript string) ([]string, error)
}

// headFraction and tailFraction are the proportions of a truncated
// transcript kept from the head and tail respectively, per spec.md
// §4.10's "keep the head 60% and the tail 40%".
const (
	maxTranscriptBytes = 10 * 1024
	headFraction       = 0.6
	tailFraction       = 0.4
	minTags            = 5
	maxTags            = 10
)

// truncateTranscript truncates a transcript over maxTranscriptBytes,
// keeping headFraction of that budget from the start and tailFraction
// from the end.
func truncateTranscript(transcript string) string {
	if len(transcript) <= maxTranscriptBytes {
		return transcript
	}
	headLen := int(float64(maxTranscriptBytes) * headFraction)
	tailLen := int(float64(maxTranscriptBytes) * tailFraction)
	head := transcript[:headLen]
	tail := transcript[len(transcript)-tailLen:]
	return head + "\n...\n" + tail
}

// Tag returns the merged tag set for transcript: 5-10 topical tags from
// caller (or the keyword fallback if caller is nil or its call fails),
// merged with conversation/session/project/date base tags. The error
// return is always nil — a failed external call degrades to the
// fallback rather than failing the archive pipeline, per spec.md §7's
// "the archive pipeline is explicitly required to keep working even if
// tagging ... fail[s]".
func Tag(ctx context.Context, transcript string, caller Caller, base BaseTags) ([]string, error) {
	transcript = truncateTranscript(transcript)

	topical, err := requestOrFallback(ctx, transcript, caller)
	_ = err // degrade silently; External errors are not fatal to archiving

	return mergeTags(topical, base.tags()), nil
}

func requestOrFallback(ctx context.Context, transcript string, caller Caller) ([]string, *errs.MnemoError) {
	if caller != nil {
		tags, err := caller.RequestTags(ctx, transcript)
		if err == nil && len(tags) > 0 {
			return clampTags(tags), nil
		}
		wrapped := errs.External("ERR_TAGGER_UNAVAILABLE", "semantic tagger call failed, falling back to keyword extraction", err)
		return KeywordTags(transcript, maxTags), wrapped
	}
	return KeywordTags(transcript, maxTags), nil
}

// clampTags enforces the 5-10 topical tag count, trimming an
// over-generous caller response and leaving an under-generous one as-is
// (the base-tag merge still guarantees a non-trivial result).
func clampTags(tags []string) []string {
	if len(tags) > maxTags {
		return tags[:maxTags]
	}
	return tags
}

// BaseTags are the fixed tags merged into every tagging result, per
// spec.md §4.10: conversation, session, project name, ISO date, and a
// stable session tag.
type BaseTags struct {
	ProjectName string
	SessionID   string
	When        time.Time
}

func (b BaseTags) tags() []string {
	out := []string{"conversation", "session"}
	if b.ProjectName != "" {
		out = append(out, b.ProjectName)
	}
	when := b.When
	if when.IsZero() {
		when = time.Now()
	}
	out = append(out, when.Format("2006-01-02"))
	if b.SessionID != "" {
		out = append(out, "session:"+b.SessionID)
	}
	return out
}

// mergeTags deduplicates topical and base tags, preserving base tags
// first and topical tags in their given order.
func mergeTags(topical, base []string) []string {
	seen := make(map[string]bool, len(topical)+len(base))
	out := make([]string, 0, len(topical)+len(base))
	for _, t := range base {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range topical {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
