package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStrategyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Read and record the learned-patterns document and performance log",
	}

	cmd.AddCommand(newStrategyShowCmd())
	cmd.AddCommand(newStrategyLogPatternCmd())
	cmd.AddCommand(newStrategyPerfCmd())
	cmd.AddCommand(newStrategyLogCmd())
	return cmd
}

func newStrategyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the learned-patterns document",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			text, err := a.strategy.Show()
			if err != nil {
				return err
			}
			a.out.Emit("strategy_show", func() string { return text }, mustJSON(map[string]string{"text": text}))
			return nil
		},
	}
	return cmd
}

func newStrategyLogPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <text>",
		Short: "Append a note to the learned-patterns document",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.strategy.AppendPattern(args[0]); err != nil {
				return err
			}
			a.out.Success("appended note")
			return nil
		},
	}
	return cmd
}

func newStrategyPerfCmd() *cobra.Command {
	var (
		terms           string
		entriesFound    int
		entriesRelevant int
		subagents       int
		notes           string
	)

	cmd := &cobra.Command{
		Use:   "perf <query>",
		Short: "Append a recall performance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.strategy.Perf(args[0], splitCSV(terms), entriesFound, entriesRelevant, subagents, notes); err != nil {
				return err
			}
			a.out.Success("recorded performance entry")
			return nil
		},
	}

	cmd.Flags().StringVar(&terms, "terms", "", "Comma-separated search terms used")
	cmd.Flags().IntVar(&entriesFound, "found", 0, "Entries found")
	cmd.Flags().IntVar(&entriesRelevant, "relevant", 0, "Entries judged relevant")
	cmd.Flags().IntVar(&subagents, "subagents", 0, "Subordinate agents spawned")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	return cmd
}

func newStrategyLogCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the last n performance records",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			text, err := a.strategy.Log(n)
			if err != nil {
				return err
			}
			a.out.Emit("strategy_log", func() string { return text }, mustJSON(map[string]string{"text": text}))
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", 20, "Number of records to show")
	return cmd
}
