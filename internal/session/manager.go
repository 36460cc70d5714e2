package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnemo-run/mnemo/internal/chunk"
	"github.com/mnemo-run/mnemo/internal/errs"
)

// Store manages analysis-session directories under a base storage path.
// Each session owns exactly one subdirectory, keyed by its id; nothing
// else writes there.
type Store struct {
	storagePath string
}

// NewStore creates a Store rooted at storagePath, creating the directory
// if it doesn't exist yet.
func NewStore(storagePath string) (*Store, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("create session storage: %w", err)
	}
	return &Store{storagePath: storagePath}, nil
}

func (s *Store) dir(id string) string {
	return filepath.Join(s.storagePath, id)
}

// Init creates a fresh active session for query against target, returning
// its id.
func (s *Store) Init(query, target string) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", err
	}

	sess := New(id, query, target)
	sess.Dir = s.dir(id)
	if err := saveState(sess); err != nil {
		return "", err
	}
	return id, nil
}

// Status returns the full state record for id.
func (s *Store) Status(id string) (*AnalysisSession, error) {
	sess, err := loadState(s.dir(id))
	if err != nil {
		return nil, errs.NotFound("ERR_SESSION_NOT_FOUND", fmt.Sprintf("session %q not found", id))
	}
	return sess, nil
}

// Result upserts results[key]=value and appends an iteration record. It
// fails with Conflict if the session has already been finalized. The
// read-modify-write is wrapped in a cross-process file lock: several
// subordinate agents append results to the same session concurrently,
// each as its own `mnemo` invocation, so an in-process mutex wouldn't
// prevent one write from clobbering another.
func (s *Store) Result(id, key, value string, now float64) error {
	return withLock(s.dir(id), func() error {
		sess, err := loadState(s.dir(id))
		if err != nil {
			return errs.NotFound("ERR_SESSION_NOT_FOUND", fmt.Sprintf("session %q not found", id))
		}
		if sess.IsFinalized() {
			return errs.Conflict("ERR_SESSION_FINALIZED", fmt.Sprintf("session %q is finalized, no further results accepted", id))
		}

		if sess.Results == nil {
			sess.Results = map[string]string{}
		}
		sess.Results[key] = value
		sess.Iterations = append(sess.Iterations, Iteration{Timestamp: now, Key: key, Value: value})

		return saveState(sess)
	})
}

// StoreManifest persists manifest as the session's last chunk manifest.
func (s *Store) StoreManifest(id string, manifest chunk.Manifest) error {
	return withLock(s.dir(id), func() error {
		sess, err := loadState(s.dir(id))
		if err != nil {
			return errs.NotFound("ERR_SESSION_NOT_FOUND", fmt.Sprintf("session %q not found", id))
		}
		if sess.IsFinalized() {
			return errs.Conflict("ERR_SESSION_FINALIZED", fmt.Sprintf("session %q is finalized", id))
		}

		m := manifest
		sess.Manifest = &m
		return saveState(sess)
	})
}

// Finalize sets status to finalized and records the optional answer,
// freezing further result writes.
func (s *Store) Finalize(id string, answer *string) error {
	return withLock(s.dir(id), func() error {
		sess, err := loadState(s.dir(id))
		if err != nil {
			return errs.NotFound("ERR_SESSION_NOT_FOUND", fmt.Sprintf("session %q not found", id))
		}
		if sess.IsFinalized() {
			return errs.Conflict("ERR_SESSION_FINALIZED", fmt.Sprintf("session %q already finalized", id))
		}

		sess.Status = StatusFinalized
		sess.FinalAnswer = answer
		return saveState(sess)
	})
}

// Exists reports whether a state.json file exists in id's session
// directory; its contents are not checked.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.dir(id), stateFileName))
	return err == nil
}

// List returns every known session's state, for garbage-collection or
// inspection tooling. Sessions are host-local and may be removed on
// reboot; List simply reflects what's currently on disk.
func (s *Store) List() ([]*AnalysisSession, error) {
	entries, err := os.ReadDir(s.storagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session storage: %w", err)
	}

	var sessions []*AnalysisSession
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sess, err := loadState(filepath.Join(s.storagePath, entry.Name()))
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
