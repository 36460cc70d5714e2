package chunk

import (
	"context"
	"strings"
)

// ChunkSemantic coalesces blank-line-separated blocks into chunks sized to
// approach (but not exceed, except for a single oversized block) the
// target byte size.
func ChunkSemantic(ctx context.Context, file *FileInput, opts Options) (Manifest, error) {
	opts = opts.withDefaults()

	lines := splitLines(string(file.Content))
	if len(lines) == 0 {
		return Manifest{Strategy: StrategySemantic, Target: file.Path}, nil
	}

	type block struct {
		startLine, endLine int
		lines              []string
	}

	var blocks []block
	var cur *block
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			if cur != nil {
				blocks = append(blocks, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &block{startLine: i + 1}
		}
		cur.lines = append(cur.lines, line)
		cur.endLine = i + 1
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}

	var chunks []Chunk
	var acc []block
	accSize := 0

	flush := func() {
		if len(acc) == 0 {
			return
		}
		start := acc[0].startLine
		end := acc[len(acc)-1].endLine
		var body strings.Builder
		for i, b := range acc {
			if i > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(strings.Join(b.lines, "\n"))
		}
		content := body.String()
		chunks = append(chunks, Chunk{
			ID:        lineChunkID(file.Path, start, end),
			Source:    file.Path,
			StartLine: start,
			EndLine:   end,
			CharCount: len(content),
			Preview:   preview(content, 80),
			Language:  file.Language,
		})
		acc = nil
		accSize = 0
	}

	for _, b := range blocks {
		blockSize := 0
		for _, l := range b.lines {
			blockSize += len(l) + 1
		}
		if accSize > 0 && accSize+blockSize > opts.TargetSize {
			flush()
		}
		acc = append(acc, b)
		accSize += blockSize
	}
	flush()

	return Manifest{Strategy: StrategySemantic, Target: file.Path, Chunks: chunks}, nil
}
