package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnemo-run/mnemo/internal/memory"
	"github.com/mnemo-run/mnemo/internal/memorydb"
	"github.com/mnemo-run/mnemo/internal/mnemocfg"
	"github.com/mnemo-run/mnemo/internal/scanner"
	"github.com/mnemo-run/mnemo/internal/session"
	"github.com/mnemo-run/mnemo/internal/strategy"
	"github.com/mnemo-run/mnemo/internal/uiout"
)

// app bundles the stores every command needs, opened once per invocation
// the way the teacher's commands each opened their own store/index
// handles off a resolved project root. mnemo has no project root concept
// beyond the scan target, so everything is rooted at baseDir instead
// (~/.mnemo by default, or $MNEMO_HOME).
type app struct {
	cfg      *mnemocfg.Config
	baseDir  string
	db       *memorydb.DB
	memory   *memory.Service
	sessions *session.Store
	strategy *strategy.Store
	out      *uiout.Writer
}

// newApp loads configuration and opens the memory, session, and strategy
// stores rooted at baseDir. Callers must call close() when done.
func newApp(jsonFlag bool) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := mnemocfg.Load(cwd)
	if err != nil {
		return nil, err
	}

	baseDir := mnemocfg.DefaultBaseDir()

	dbCfg := memorydb.DefaultConfig()
	dbCfg.BusyTimeoutMS = cfg.Memory.BusyTimeoutMS
	dbCfg.CacheSizeKB = cfg.Memory.CacheSizeKB
	dbCfg.Weights = memorydb.Weights{
		Summary: cfg.Memory.SummaryWeight,
		Tags:    cfg.Memory.TagsWeight,
		Content: cfg.Memory.ContentWeight,
	}
	db, err := memorydb.Open(mnemocfg.DefaultMemoryDBPath(baseDir), dbCfg)
	if err != nil {
		return nil, err
	}

	sessionsPath := cfg.Sessions.StoragePath
	if sessionsPath == "" {
		sessionsPath = filepath.Join(baseDir, "sessions")
	}
	sessions, err := session.NewStore(sessionsPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	strategyStore, err := strategy.New(mnemocfg.DefaultStrategyDir(baseDir))
	if err != nil {
		db.Close()
		return nil, err
	}

	svc := memory.New(db)
	if cfg.Memory.DeduplicateWindowSeconds > 0 {
		svc = svc.WithWindow(secondsToDuration(cfg.Memory.DeduplicateWindowSeconds))
	}

	return &app{
		cfg:      cfg,
		baseDir:  baseDir,
		db:       db,
		memory:   svc,
		sessions: sessions,
		strategy: strategyStore,
		out:      uiout.New(uiout.FormatFromFlag(jsonFlag)),
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// scanOptions builds the scanner.ScanOptions for rootDir from the app's path
// include/exclude patterns and submodule settings.
func (a *app) scanOptions(rootDir string) *scanner.ScanOptions {
	return &scanner.ScanOptions{
		RootDir:          rootDir,
		IncludePatterns:  a.cfg.Paths.Include,
		ExcludePatterns:  a.cfg.Paths.Exclude,
		RespectGitignore: true,
		Submodules:       &a.cfg.Submodules,
	}
}
