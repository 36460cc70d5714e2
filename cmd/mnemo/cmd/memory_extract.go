package cmd

import (
	"github.com/spf13/cobra"
)

func newMemoryExtractCmd() *cobra.Command {
	var (
		grep         string
		context      int
		chunkID      string
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "memory-extract <id>",
		Short: "Return content from a memory entry",
		Long: `memory-extract returns the whole entry content when no options are
given, the result of a grep pass when --grep is set, or a chunk lookup
against --manifest when --chunk-id is set. --grep and --chunk-id are
mutually exclusive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			text, err := a.memory.MemoryExtract(c.Context(), args[0], chunkID, manifestPath, grep, context)
			if err != nil {
				return err
			}

			a.out.EmitRaw(func() string { return text }, mustJSON(map[string]string{"text": text}))
			return nil
		},
	}

	cmd.Flags().StringVar(&grep, "grep", "", "Regular expression to search the entry content for")
	cmd.Flags().IntVar(&context, "context", 0, "Lines of context around each --grep match")
	cmd.Flags().StringVar(&chunkID, "chunk-id", "", "Chunk id to look up in --manifest")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest path, required with --chunk-id")
	return cmd
}
