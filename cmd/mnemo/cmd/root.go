// Package cmd provides the CLI commands for mnemo.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/logging"
	"github.com/mnemo-run/mnemo/pkg/version"
)

var (
	jsonOutput  bool
	debugMode   bool
	loggingDone func()
)

// NewRootCmd creates the root command for the mnemo CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mnemo",
		Short: "External memory and recursive-analysis engine for LLM orchestrators",
		Long: `mnemo gives an LLM orchestrator a place to put things it can't hold in
its own context: a bounded-output memory store it can remember to and
recall from, and a set of scan/chunk/extract primitives a subordinate
agent can use to work through a large target a piece at a time.

Every command that can return more than a few KB of text truncates its
output and says so, rather than flooding the caller's context window.
Content handed to a subordinate agent (extract by line range or chunk id,
memory-extract without options, export-session) is printed in full.`,
		Version:       version.Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Write structured debug logs to the mnemo log directory")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingDone != nil {
			loggingDone()
		}
	}

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newRecommendCmd())
	cmd.AddCommand(newChunkCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newRememberCmd())
	cmd.AddCommand(newRecallCmd())
	cmd.AddCommand(newMemoryExtractCmd())
	cmd.AddCommand(newMemoryListCmd())
	cmd.AddCommand(newMemoryTagsCmd())
	cmd.AddCommand(newForgetCmd())
	cmd.AddCommand(newExportSessionCmd())
	cmd.AddCommand(newStrategyCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// startLogging wires structured logging the way the teacher's root command
// does: off by default, file-based JSON logs under --debug. The serve
// subcommand always gets file-only logging regardless of --debug, since its
// stdio transport can't tolerate a stray write to stdout and it has no other
// way to surface what it's doing.
func startLogging(c *cobra.Command, _ []string) error {
	if c.Name() == "serve" {
		cleanup, err := logging.SetupMCPMode()
		if err != nil {
			return err
		}
		loggingDone = cleanup
		return nil
	}

	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	loggingDone = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}
