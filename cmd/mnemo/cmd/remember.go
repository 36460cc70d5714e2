package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/errs"
)

func newRememberCmd() *cobra.Command {
	var (
		tags       string
		summary    string
		source     string
		sourceName string
		file       string
		stdin      bool
	)

	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a piece of text in the memory store",
		Long: `Remember stores content as a new entry. Tags and summary are generated
deterministically when omitted. content may be given as an argument,
read from --file, or piped in with --stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			content, err := resolveContent(args, file, stdin)
			if err != nil {
				return err
			}
			return runRemember(c, content, splitCSV(tags), summary, source, sourceName)
		},
	}

	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags (generated from content when omitted)")
	cmd.Flags().StringVar(&summary, "summary", "", "One-line summary (generated from content when omitted)")
	cmd.Flags().StringVar(&source, "source", "conversation", "Provenance label, e.g. conversation or analysis")
	cmd.Flags().StringVar(&sourceName, "source-name", "", "Human-readable name for the source")
	cmd.Flags().StringVar(&file, "file", "", "Read content from this file instead of an argument")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read content from stdin instead of an argument")

	return cmd
}

func resolveContent(args []string, file string, stdin bool) (string, error) {
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", errs.Wrap(errs.KindExternal, "ERR_READ_FAILED", err).WithDetail("path", file)
		}
		return string(b), nil
	case stdin:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errs.Wrap(errs.KindExternal, "ERR_READ_FAILED", err)
		}
		return string(b), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errs.InvalidArgument("ERR_NO_CONTENT", "provide content as an argument, --file, or --stdin")
	}
}

func runRemember(c *cobra.Command, content string, tags []string, summary, source, sourceName string) error {
	a, err := newApp(jsonOutput)
	if err != nil {
		return err
	}
	defer a.close()

	id, err := a.memory.Remember(c.Context(), content, tags, summary, source, sourceName)
	if err != nil {
		return err
	}

	a.out.Emit("remember", func() string { return id }, mustJSON(map[string]string{"id": id}))
	return nil
}
