// Package extract implements targeted retrieval: line range, chunk-id
// via a persisted manifest, or regex with a context window, per
// spec.md §4.3. The three modes are mutually exclusive — exactly one
// selector is supplied per call. Grounded on the teacher's
// internal/chunk/extractor.go traversal style. Every mode first reads the
// whole file into memory with ReadLines and then selects from it.
package extract

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mnemo-run/mnemo/internal/chunk"
	"github.com/mnemo-run/mnemo/internal/errs"
)

// ReadLines reads path and returns its content split into lines, with
// trailing newlines stripped (newline normalization is allowed by
// spec.md's non-goals).
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NotFound("ERR_FILE_NOT_FOUND", fmt.Sprintf("cannot open %s: %v", path, err))
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// Lines returns lines [start, end] (1-indexed, inclusive) from file,
// clamping an out-of-range request to the file's actual extent rather
// than erroring.
func Lines(path string, start, end int) (string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return "", nil
	}

	return strings.Join(lines[start-1:end], "\n"), nil
}

// ByChunkID looks up chunkID in the manifest at manifestPath and returns
// the slice of file it describes: its (start_line, end_line) range for
// line-range chunks, or a listing of its member files for file-group
// chunks (which are content-free by construction and have no single
// slice to render).
func ByChunkID(file, chunkID, manifestPath string) (string, error) {
	manifest, err := chunk.LoadManifest(manifestPath)
	if err != nil {
		return "", errs.NotFound("ERR_MANIFEST_NOT_FOUND", err.Error())
	}

	c, ok := manifest.Find(chunkID)
	if !ok {
		return "", errs.NotFound("ERR_CHUNK_NOT_FOUND", fmt.Sprintf("chunk %q not found in manifest", chunkID))
	}

	if len(c.Files) > 0 {
		return strings.Join(c.Files, "\n"), nil
	}

	target := file
	if target == "" {
		target = c.Source
	}
	return Lines(target, c.StartLine, c.EndLine)
}

// ByChunkIDInText looks up chunkID in the manifest at manifestPath and
// slices an already-loaded string, for callers whose content did not
// come from a file on disk (such as a stored memory entry).
func ByChunkIDInText(content, chunkID, manifestPath string) (string, error) {
	manifest, err := chunk.LoadManifest(manifestPath)
	if err != nil {
		return "", errs.NotFound("ERR_MANIFEST_NOT_FOUND", err.Error())
	}

	c, ok := manifest.Find(chunkID)
	if !ok {
		return "", errs.NotFound("ERR_CHUNK_NOT_FOUND", fmt.Sprintf("chunk %q not found in manifest", chunkID))
	}

	if len(c.Files) > 0 {
		return strings.Join(c.Files, "\n"), nil
	}

	lines := strings.Split(content, "\n")
	start, end := c.StartLine, c.EndLine
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return "", nil
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

// Match is one regex hit with its surrounding context window.
type Match struct {
	StartLine int
	EndLine   int
	Text      string // line-numbered, one "N: line" entry per line
}

// Grep returns every match of pattern in file, each with ±context lines
// of surrounding context, overlapping windows merged and deduplicated,
// in source order, every line prefixed with its 1-indexed line number.
// An empty match set is not an error — callers render it as "No matches".
func Grep(path, pattern string, context int) ([]Match, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return grepLines(lines, pattern, context)
}

// GrepText runs the same regex+context extraction as Grep directly
// against an in-memory string, for callers (such as the memory service)
// whose content did not come from a file on disk.
func GrepText(content, pattern string, context int) ([]Match, error) {
	return grepLines(strings.Split(content, "\n"), pattern, context)
}

func grepLines(lines []string, pattern string, context int) ([]Match, error) {
	if context < 0 {
		context = 0
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.InvalidArgument("ERR_BAD_REGEX", fmt.Sprintf("invalid regex %q: %v", pattern, err))
	}

	type span struct{ start, end int }
	var spans []span
	for i, line := range lines {
		if re.MatchString(line) {
			start := i - context
			if start < 0 {
				start = 0
			}
			end := i + context
			if end >= len(lines) {
				end = len(lines) - 1
			}
			spans = append(spans, span{start, end})
		}
	}
	if len(spans) == 0 {
		return nil, nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end+1 {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	matches := make([]Match, 0, len(merged))
	for _, s := range merged {
		var b strings.Builder
		for i := s.start; i <= s.end; i++ {
			fmt.Fprintf(&b, "%d: %s\n", i+1, lines[i])
		}
		matches = append(matches, Match{
			StartLine: s.start + 1,
			EndLine:   s.end + 1,
			Text:      strings.TrimSuffix(b.String(), "\n"),
		})
	}
	return matches, nil
}

// RenderGrep joins matches into a single human-readable block, or
// "No matches" if matches is empty.
func RenderGrep(matches []Match) string {
	if len(matches) == 0 {
		return "No matches"
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m.Text)
	}
	return strings.Join(blocks, "\n--\n")
}
