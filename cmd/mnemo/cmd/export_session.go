package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/errs"
	"github.com/mnemo-run/mnemo/internal/transcript"
)

func newExportSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-session <path>",
		Short: "Condense a line-delimited session log into a plain-text transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errs.Wrap(errs.KindExternal, "ERR_READ_FAILED", err).WithDetail("path", args[0])
			}
			defer f.Close()

			w, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer w.close()

			var out strings.Builder
			if err := transcript.Export(f, &out); err != nil {
				return err
			}

			w.out.EmitRaw(func() string { return out.String() }, mustJSON(map[string]string{"transcript": out.String()}))
			return nil
		},
	}
	return cmd
}
