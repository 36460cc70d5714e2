package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newForgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forget <id>",
		Short: "Permanently delete a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.memory.Forget(c.Context(), args[0]); err != nil {
				return err
			}

			a.out.Success(fmt.Sprintf("forgot %s", args[0]))
			return nil
		},
	}
	return cmd
}
