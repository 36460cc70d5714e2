package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/errs"
	"github.com/mnemo-run/mnemo/internal/extract"
)

func newExtractCmd() *cobra.Command {
	var (
		lineRange    string
		chunkID      string
		manifestPath string
		grep         string
		context      int
	)

	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract a slice of path's content",
		Long: `Extract returns exactly one of: a line range (--lines A:B), a chunk by
id against a manifest (--chunk-id, --manifest), or the lines matching a
regular expression with surrounding context (--grep, --context).`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runExtract(args[0], lineRange, chunkID, manifestPath, grep, context)
		},
	}

	cmd.Flags().StringVar(&lineRange, "lines", "", "Line range to extract, e.g. 10:40")
	cmd.Flags().StringVar(&chunkID, "chunk-id", "", "Chunk id to look up in --manifest")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest path, required with --chunk-id")
	cmd.Flags().StringVar(&grep, "grep", "", "Regular expression to search for")
	cmd.Flags().IntVar(&context, "context", 0, "Lines of context around each --grep match")

	return cmd
}

func runExtract(path, lineRange, chunkID, manifestPath, grep string, context int) error {
	a, err := newApp(jsonOutput)
	if err != nil {
		return err
	}
	defer a.close()

	modes := 0
	if lineRange != "" {
		modes++
	}
	if chunkID != "" {
		modes++
	}
	if grep != "" {
		modes++
	}
	if modes != 1 {
		return errs.InvalidArgument("ERR_EXTRACT_MODE", "exactly one of --lines, --chunk-id, or --grep is required")
	}

	var text string
	switch {
	case lineRange != "":
		start, end, err := parseLineRange(lineRange)
		if err != nil {
			return err
		}
		text, err = extract.Lines(path, start, end)
		if err != nil {
			return err
		}
	case chunkID != "":
		if manifestPath == "" {
			return errs.InvalidArgument("ERR_MISSING_MANIFEST", "--chunk-id requires --manifest")
		}
		text, err = extract.ByChunkID(path, chunkID, manifestPath)
		if err != nil {
			return err
		}
	default:
		matches, err := extract.Grep(path, grep, context)
		if err != nil {
			return err
		}
		text = extract.RenderGrep(matches)
	}

	// Line-range and chunk-id output is subagent content and stays ungated;
	// grep output goes through the bounded-output gate.
	if grep != "" {
		a.out.Emit("extract", func() string { return text }, mustJSON(map[string]string{"text": text}))
		return nil
	}
	a.out.EmitRaw(func() string { return text }, mustJSON(map[string]string{"text": text}))
	return nil
}

func parseLineRange(s string) (int, int, error) {
	var start, end int
	if _, err := fmt.Sscanf(s, "%d:%d", &start, &end); err != nil {
		return 0, 0, errs.InvalidArgument("ERR_INVALID_RANGE", fmt.Sprintf("invalid line range %q, want A:B", s))
	}
	return start, end, nil
}
