package cmd

import (
	"github.com/spf13/cobra"
)

func newRecallCmd() *cobra.Command {
	var (
		tags string
		max  int
	)

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: "Search the memory store",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			text, hits, err := a.memory.Recall(c.Context(), args[0], splitCSV(tags), max)
			if err != nil {
				return err
			}

			a.out.Emit("recall", func() string { return text }, mustJSON(hits))
			return nil
		},
	}

	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags every hit must carry")
	cmd.Flags().IntVar(&max, "max", 20, "Maximum number of hits")
	return cmd
}
