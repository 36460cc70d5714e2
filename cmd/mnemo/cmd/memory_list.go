package cmd

import (
	"github.com/spf13/cobra"
)

func newMemoryListCmd() *cobra.Command {
	var (
		tags   string
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "memory-list",
		Short: "List memory entries in chronological order",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			text, hits, err := a.memory.List(c.Context(), splitCSV(tags), offset, limit)
			if err != nil {
				return err
			}

			a.out.Emit("memory_list", func() string { return text }, mustJSON(hits))
			return nil
		},
	}

	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags every entry must carry")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to return")
	return cmd
}

func newMemoryTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory-tags",
		Short: "Show the tag histogram across all memory entries",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			text, hist, err := a.memory.Tags(c.Context())
			if err != nil {
				return err
			}

			a.out.Emit("memory_tags", func() string { return text }, mustJSON(hist))
			return nil
		},
	}
	return cmd
}
