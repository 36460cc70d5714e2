package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage recursive-analysis sessions",
		Long: `An analysis session tracks a single query's progress across the many
short-lived invocations a recursive analysis makes: an append-only
iteration log, a keyed results dictionary, and the last chunk manifest
stored against it.`,
	}

	cmd.AddCommand(newSessionInitCmd())
	cmd.AddCommand(newSessionStatusCmd())
	cmd.AddCommand(newSessionResultCmd())
	cmd.AddCommand(newSessionFinalizeCmd())
	return cmd
}

func newSessionInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <query> <target>",
		Short: "Start a new analysis session",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.sessions.Init(args[0], args[1])
			if err != nil {
				return err
			}
			a.out.Emit("session_init", func() string { return id }, mustJSON(map[string]string{"id": id}))
			return nil
		},
	}
	return cmd
}

func newSessionStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show an analysis session's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			sess, err := a.sessions.Status(args[0])
			if err != nil {
				return err
			}
			a.out.Emit("session_status", func() string { return renderSessionStatus(sess) }, mustJSON(sess))
			return nil
		},
	}
	return cmd
}

func newSessionResultCmd() *cobra.Command {
	var key, value string
	var showAll bool

	cmd := &cobra.Command{
		Use:   "result <id>",
		Short: "Write or read a session's keyed results",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			id := args[0]

			if showAll {
				sess, err := a.sessions.Status(id)
				if err != nil {
					return err
				}
				a.out.Emit("session_result", func() string { return renderSessionResults(sess.Results) }, mustJSON(sess.Results))
				return nil
			}

			if err := a.sessions.Result(id, key, value, float64(time.Now().Unix())); err != nil {
				return err
			}
			a.out.Success(fmt.Sprintf("stored %s for session %s", key, id))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Result key")
	cmd.Flags().StringVar(&value, "value", "", "Result value")
	cmd.Flags().BoolVar(&showAll, "all", false, "Print every stored result instead of writing one")
	return cmd
}

func newSessionFinalizeCmd() *cobra.Command {
	var answer string

	cmd := &cobra.Command{
		Use:   "finalize <id>",
		Short: "Mark an analysis session finalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			var ans *string
			if answer != "" {
				ans = &answer
			}
			if err := a.sessions.Finalize(args[0], ans); err != nil {
				return err
			}
			a.out.Success(fmt.Sprintf("session %s finalized", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&answer, "answer", "", "Final answer to record")
	return cmd
}

func renderSessionStatus(sess *session.AnalysisSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id:          %s\n", sess.ID)
	fmt.Fprintf(&b, "query:       %s\n", sess.Query)
	fmt.Fprintf(&b, "target:      %s\n", sess.Target)
	fmt.Fprintf(&b, "status:      %s\n", sess.Status)
	fmt.Fprintf(&b, "iterations:  %d\n", len(sess.Iterations))
	fmt.Fprintf(&b, "results:     %d\n", len(sess.Results))
	if len(sess.Results) > 0 {
		b.WriteString(renderSessionResults(sess.Results))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderSessionResults(results map[string]string) string {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, results[k])
	}
	return strings.TrimSuffix(b.String(), "\n")
}
