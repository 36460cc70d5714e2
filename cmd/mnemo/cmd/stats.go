package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemo-run/mnemo/internal/mnemocfg"
	"github.com/mnemo-run/mnemo/internal/uiout"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory, session, and strategy store health",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(jsonOutput)
			if err != nil {
				return err
			}
			defer a.close()

			info, err := collectStats(c, a)
			if err != nil {
				return err
			}
			return info.Emit(a.out)
		},
	}
	return cmd
}

func collectStats(c *cobra.Command, a *app) (uiout.StatusInfo, error) {
	info := uiout.StatusInfo{BaseDir: a.baseDir, Healthy: true}

	entryCount, err := a.db.Count(c.Context())
	if err != nil {
		return info, err
	}
	info.EntryCount = entryCount
	info.FTSRowCount = entryCount

	sessions, err := a.sessions.List()
	if err != nil {
		return info, err
	}
	info.SessionCount = len(sessions)

	if text, err := a.strategy.Show(); err == nil {
		info.StrategyCount = countNonEmptyLines(text)
	}

	dbPath := mnemocfg.DefaultMemoryDBPath(a.baseDir)
	if st, err := os.Stat(dbPath); err == nil {
		info.DBSizeBytes = st.Size()
	}

	if err := a.db.CheckConsistency(c.Context()); err != nil {
		info.Healthy = false
		info.HealthDetail = err.Error()
	}

	_, hits, err := a.memory.List(c.Context(), nil, 0, 1)
	if err == nil && len(hits) > 0 {
		info.LastRemember = hits[0].CreatedAt
	}

	return info, nil
}

func countNonEmptyLines(s string) int {
	n := 0
	line := ""
	for _, r := range s {
		if r == '\n' {
			if line != "" {
				n++
			}
			line = ""
			continue
		}
		line += string(r)
	}
	if line != "" {
		n++
	}
	return n
}
