package chunk

import (
	"context"
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ChunkHeadings splits markdown content at heading boundaries. Only
// headings at or above the configured level start a new chunk; deeper
// headings stay inside their enclosing section.
func ChunkHeadings(ctx context.Context, file *FileInput, opts Options) (Manifest, error) {
	opts = opts.withDefaults()

	lines := splitLines(string(file.Content))
	if len(lines) == 0 {
		return Manifest{Strategy: StrategyHeadings, Target: file.Path}, nil
	}

	type section struct {
		title     string
		startLine int
		bodyLines []string
	}

	var sections []*section
	var current *section

	for i, line := range lines {
		if m := headingPattern.FindStringSubmatch(line); m != nil && len(m[1]) <= opts.HeadingLevel {
			if current != nil {
				sections = append(sections, current)
			}
			current = &section{title: strings.TrimSpace(m[2]), startLine: i + 1}
		}
		if current == nil {
			current = &section{title: "", startLine: i + 1}
		}
		current.bodyLines = append(current.bodyLines, line)
	}
	if current != nil {
		sections = append(sections, current)
	}

	chunks := make([]Chunk, 0, len(sections))
	for _, sec := range sections {
		if len(sec.bodyLines) == 0 {
			continue
		}
		body := strings.Join(sec.bodyLines, "\n")
		endLine := sec.startLine + len(sec.bodyLines) - 1

		meta := map[string]string{}
		if sec.title != "" {
			meta["section_title"] = sec.title
		}

		chunks = append(chunks, Chunk{
			ID:        lineChunkID(file.Path, sec.startLine, endLine),
			Source:    file.Path,
			StartLine: sec.startLine,
			EndLine:   endLine,
			CharCount: len(body),
			Preview:   preview(body, 80),
			Language:  "markdown",
			Metadata:  meta,
		})
	}

	return Manifest{Strategy: StrategyHeadings, Target: file.Path, Chunks: chunks}, nil
}
