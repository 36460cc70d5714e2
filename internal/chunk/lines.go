package chunk

import (
	"context"
	"strings"
)

// ChunkLines splits a file into fixed line windows with overlap. The union
// of chunk line ranges covers the full file; no chunk is empty.
func ChunkLines(ctx context.Context, file *FileInput, opts Options) (Manifest, error) {
	opts = opts.withDefaults()

	content := string(file.Content)
	lines := splitLines(content)
	if len(lines) == 0 {
		return Manifest{Strategy: StrategyLines, Target: file.Path}, nil
	}

	windowSize := opts.ChunkSize
	overlap := opts.Overlap
	if overlap >= windowSize {
		overlap = windowSize - 1
	}
	step := windowSize - overlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for start := 0; start < len(lines); start += step {
		end := start + windowSize
		if end > len(lines) {
			end = len(lines)
		}

		body := strings.Join(lines[start:end], "\n")
		startLine, endLine := start+1, end // 1-indexed, inclusive

		chunks = append(chunks, Chunk{
			ID:        lineChunkID(file.Path, startLine, endLine),
			Source:    file.Path,
			StartLine: startLine,
			EndLine:   endLine,
			CharCount: len(body),
			Preview:   preview(body, 80),
			Language:  file.Language,
		})

		if end == len(lines) {
			break
		}
	}

	return Manifest{Strategy: StrategyLines, Target: file.Path, Chunks: chunks}, nil
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}
