package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/mcp"
	"github.com/mnemo-run/mnemo/pkg/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memory tool surface over MCP (stdio)",
		Long: `Serve starts mnemo's remote-tool surface: remember, recall, list,
extract, and forget, exposed over the Model Context Protocol via
stdio. An orchestrator configures this as an MCP server rather than
shelling out to individual mnemo subcommands.`,
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			server := mcp.New(a.memory, "mnemo", version.Short(), slog.Default())
			return server.Run(c.Context())
		},
	}
	return cmd
}
