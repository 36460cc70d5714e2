package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/scanner"
)

func newScanCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a directory or file and report its structure",
		Long: `Scan walks path, classifying every file by language and content type,
and returns counts, a language breakdown, a directory skeleton, and a
per-file structure outline (functions, classes, methods) — never the
file contents themselves.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runScan(c, args[0], depth)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "Directory skeleton depth (0 = unlimited)")
	return cmd
}

func runScan(c *cobra.Command, path string, depth int) error {
	a, err := newApp(jsonOutput)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := scanner.New()
	if err != nil {
		return err
	}

	report, err := scanner.BuildReport(c.Context(), s, a.scanOptions(path), depth)
	if err != nil {
		return err
	}

	a.out.Emit("scan", func() string { return renderScanReport(report) }, mustJSON(report))
	return nil
}

func renderScanReport(report *scanner.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "root:        %s\n", report.RootDir)
	fmt.Fprintf(&b, "files:       %d\n", report.FileCount)
	fmt.Fprintf(&b, "lines:       %d\n", report.TotalLines)
	fmt.Fprintf(&b, "bytes:       %d\n", report.TotalBytes)
	fmt.Fprintf(&b, "languages:   %v\n", report.Languages)
	if len(report.Errors) > 0 {
		fmt.Fprintf(&b, "errors:      %d\n", len(report.Errors))
	}
	for _, fr := range report.Files {
		fmt.Fprintf(&b, "  %s  (%s, %d lines)\n", fr.Path, fr.Language, fr.Lines)
		for _, sym := range fr.Structure {
			fmt.Fprintf(&b, "    %d  %-8s %s\n", sym.Line, sym.Kind, sym.Name)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
