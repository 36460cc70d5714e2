package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/chunk"
	"github.com/mnemo-run/mnemo/internal/scanner"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <path>",
		Short: "Recommend a chunking strategy for path",
		Long: `Recommend scans path and suggests one or more chunking strategies with
a one-line rationale each, ordered from finest-grained to coarsest, so
a caller can pick without having to understand every strategy's
tradeoffs up front.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runRecommend(c, args[0])
		},
	}
	return cmd
}

func runRecommend(c *cobra.Command, path string) error {
	a, err := newApp(jsonOutput)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := scanner.New()
	if err != nil {
		return err
	}

	report, err := scanner.BuildReport(c.Context(), s, a.scanOptions(path), 0)
	if err != nil {
		return err
	}

	summary := summarize(report)
	recs := chunk.Recommend(summary)

	a.out.Emit("recommend", func() string {
		var b strings.Builder
		for _, r := range recs {
			fmt.Fprintf(&b, "%-16s %s\n", r.Strategy, r.Rationale)
		}
		return strings.TrimSuffix(b.String(), "\n")
	}, mustJSON(recs))
	return nil
}

// summarize reduces a scan report to the predicates chunk.Recommend
// reasons over.
func summarize(report *scanner.Report) chunk.ScanSummary {
	summary := chunk.ScanSummary{
		FileCount:      report.FileCount,
		LanguageCounts: report.Languages,
		HasMarkdown:    report.Languages["markdown"] > 0,
	}

	var largest scanner.FileReport
	var totalBytes int64
	for _, f := range report.Files {
		if f.Size > largest.Size {
			largest = f
		}
		totalBytes += f.Size
	}
	if report.FileCount > 0 {
		summary.AvgFileBytes = totalBytes / int64(report.FileCount)
	}
	summary.LargestFileBytes = largest.Size
	if _, ok := chunk.DefaultRegistry().GetByName(largest.Language); ok {
		summary.LargestFileHasAST = true
	}

	if report.FileCount == 1 {
		summary.SingleLargeFile = true
		summary.SingleFileBytes = largest.Size
		summary.SingleFileLanguage = largest.Language
	}

	dirs := map[string]bool{}
	for _, f := range report.Files {
		dirs[dirOf(f.Path)] = true
	}
	summary.DirectoryCount = len(dirs)

	return summary
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
