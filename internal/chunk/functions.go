package chunk

import (
	"context"
)

// ChunkFunctions splits at function/class boundaries using the language's
// structure outline (tree-sitter, where a grammar is registered). For a
// language with no registered grammar there is no detectable structure, so
// it falls back to the lines strategy with the configured defaults — the
// same fallback the recommendation engine steers callers toward for
// unstructured files.
func ChunkFunctions(ctx context.Context, file *FileInput, opts Options) (Manifest, error) {
	opts = opts.withDefaults()

	registry := DefaultRegistry()
	if _, ok := registry.GetByName(file.Language); !ok {
		m, err := ChunkLines(ctx, file, opts)
		m.Strategy = StrategyFunctions
		return m, err
	}

	parser := NewParserWithRegistry(registry)
	defer parser.Close()

	tree, err := parser.Parse(ctx, file.Content, file.Language)
	if err != nil {
		m, lineErr := ChunkLines(ctx, file, opts)
		m.Strategy = StrategyFunctions
		return m, lineErr
	}

	extractor := NewSymbolExtractorWithRegistry(registry)
	symbols := extractor.Extract(tree, file.Content)

	chunks := make([]Chunk, 0, len(symbols))
	for _, sym := range symbols {
		if sym.Type != SymbolTypeFunction && sym.Type != SymbolTypeMethod && sym.Type != SymbolTypeClass {
			continue
		}
		meta := map[string]string{
			"symbol":      sym.Name,
			"symbol_type": string(sym.Type),
		}
		if sym.Signature != "" {
			meta["signature"] = sym.Signature
		}

		charCount := byteRangeLen(file.Content, sym.StartLine, sym.EndLine)
		chunks = append(chunks, Chunk{
			ID:        lineChunkID(file.Path, sym.StartLine, sym.EndLine),
			Source:    file.Path,
			StartLine: sym.StartLine,
			EndLine:   sym.EndLine,
			CharCount: charCount,
			Preview:   sym.Signature,
			Language:  file.Language,
			Metadata:  meta,
		})
	}

	if len(chunks) == 0 {
		m, lineErr := ChunkLines(ctx, file, opts)
		m.Strategy = StrategyFunctions
		return m, lineErr
	}

	return Manifest{Strategy: StrategyFunctions, Target: file.Path, Chunks: chunks}, nil
}

// byteRangeLen estimates the byte length of 1-indexed inclusive line range
// [start, end] within content.
func byteRangeLen(content []byte, start, end int) int {
	lines := splitLines(string(content))
	if start < 1 || start > len(lines) {
		return 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	n := 0
	for i := start - 1; i < end; i++ {
		n += len(lines[i]) + 1
	}
	return n
}
