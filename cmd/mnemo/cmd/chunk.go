package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/chunk"
	"github.com/mnemo-run/mnemo/internal/errs"
	"github.com/mnemo-run/mnemo/internal/scanner"
)

func newChunkCmd() *cobra.Command {
	var (
		strategyName  string
		sessionID     string
		chunkSize     int
		overlap       int
		headingLevel  int
		targetSize    int
		groupSize     int64
		manifestPath  string
	)

	cmd := &cobra.Command{
		Use:   "chunk <path>",
		Short: "Split a file or directory into a content-free chunk manifest",
		Long: `Chunk produces a manifest of chunk descriptors for path under the given
strategy: lines, files_directory, files_language, files_balanced,
functions, headings, or semantic. The manifest never carries chunk
content, only enough to address each chunk later via "extract".`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			opts := chunk.Options{
				ChunkSize:       chunkSize,
				Overlap:         overlap,
				HeadingLevel:    headingLevel,
				TargetSize:      targetSize,
				TargetGroupSize: groupSize,
			}
			return runChunk(c, args[0], chunk.Strategy(strategyName), opts, sessionID, manifestPath)
		},
	}

	cmd.Flags().StringVar(&strategyName, "strategy", "", "Chunking strategy (required)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Analysis session id to store the manifest under")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", chunk.DefaultChunkSize, "Lines per chunk (lines strategy)")
	cmd.Flags().IntVar(&overlap, "overlap", chunk.DefaultOverlap, "Overlapping lines between chunks (lines strategy)")
	cmd.Flags().IntVar(&headingLevel, "heading-level", chunk.DefaultHeadingLevel, "Markdown heading level to split at (headings strategy)")
	cmd.Flags().IntVar(&targetSize, "target-size", chunk.DefaultTargetSize, "Target chunk size in bytes (semantic strategy)")
	cmd.Flags().Int64Var(&groupSize, "group-size", int64(chunk.DefaultTargetSize), "Target group size in bytes (files_balanced strategy)")
	cmd.Flags().StringVar(&manifestPath, "manifest-out", "", "Write the manifest to this path in addition to stdout")
	cmd.MarkFlagRequired("strategy")

	return cmd
}

func runChunk(c *cobra.Command, path string, strat chunk.Strategy, opts chunk.Options, sessionID, manifestOut string) error {
	a, err := newApp(jsonOutput)
	if err != nil {
		return err
	}
	defer a.close()

	manifest, err := buildManifest(c, a, path, strat, opts)
	if err != nil {
		return err
	}

	if manifestOut != "" {
		if err := chunk.SaveManifest(manifestOut, manifest); err != nil {
			return err
		}
	}

	if sessionID != "" {
		if err := a.sessions.StoreManifest(sessionID, manifest); err != nil {
			return err
		}
	}

	a.out.Emit("chunk", func() string { return renderManifest(manifest) }, mustJSON(manifest))
	return nil
}

func isFileGroupStrategy(strat chunk.Strategy) bool {
	switch strat {
	case chunk.StrategyFilesDirectory, chunk.StrategyFilesLanguage, chunk.StrategyFilesBalanced:
		return true
	}
	return false
}

func buildManifest(c *cobra.Command, a *app, path string, strat chunk.Strategy, opts chunk.Options) (chunk.Manifest, error) {
	if isFileGroupStrategy(strat) {
		return buildGroupManifest(c, a, path, strat, opts)
	}
	return buildFileManifest(c, path, strat, opts)
}

func buildGroupManifest(c *cobra.Command, a *app, path string, strat chunk.Strategy, opts chunk.Options) (chunk.Manifest, error) {
	s, err := scanner.New()
	if err != nil {
		return chunk.Manifest{}, err
	}

	results, err := s.Scan(c.Context(), a.scanOptions(path))
	if err != nil {
		return chunk.Manifest{}, err
	}

	var files []chunk.FileMeta
	for r := range results {
		if r.Error != nil || r.File == nil {
			continue
		}
		files = append(files, chunk.FileMeta{Path: r.File.Path, Size: r.File.Size, Language: r.File.Language})
	}

	switch strat {
	case chunk.StrategyFilesDirectory:
		return chunk.ChunkFilesDirectory(c.Context(), path, files)
	case chunk.StrategyFilesLanguage:
		return chunk.ChunkFilesLanguage(c.Context(), path, files)
	default:
		return chunk.ChunkFilesBalanced(c.Context(), path, files, opts.TargetGroupSize)
	}
}

func buildFileManifest(c *cobra.Command, path string, strat chunk.Strategy, opts chunk.Options) (chunk.Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return chunk.Manifest{}, errs.Wrap(errs.KindExternal, "ERR_READ_FAILED", err).WithDetail("path", path)
	}

	file := &chunk.FileInput{Path: path, Content: content, Language: scanner.DetectLanguage(path)}

	switch strat {
	case chunk.StrategyLines:
		return chunk.ChunkLines(c.Context(), file, opts)
	case chunk.StrategyFunctions:
		return chunk.ChunkFunctions(c.Context(), file, opts)
	case chunk.StrategyHeadings:
		return chunk.ChunkHeadings(c.Context(), file, opts)
	case chunk.StrategySemantic:
		return chunk.ChunkSemantic(c.Context(), file, opts)
	default:
		return chunk.Manifest{}, errs.InvalidArgument("ERR_UNKNOWN_STRATEGY", fmt.Sprintf("unknown strategy %q", strat))
	}
}

func renderManifest(manifest chunk.Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "strategy: %s\n", manifest.Strategy)
	fmt.Fprintf(&b, "target:   %s\n", manifest.Target)
	fmt.Fprintf(&b, "chunks:   %d\n", len(manifest.Chunks))
	for _, ch := range manifest.Chunks {
		if ch.GroupName != "" {
			fmt.Fprintf(&b, "  %s  %s  (%d files, %d chars)\n", ch.ID, ch.GroupName, len(ch.Files), ch.CharCount)
		} else {
			fmt.Fprintf(&b, "  %s  %s:%d-%d  (%d chars)\n", ch.ID, ch.Source, ch.StartLine, ch.EndLine, ch.CharCount)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
