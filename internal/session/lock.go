package session

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock guards a session directory's read-modify-write sequence
// (loadState, mutate, saveState) across processes: a recursive analysis
// typically has several subordinate agent invocations of `mnemo session
// result` racing against the same session id, each a separate OS process,
// so an in-process mutex alone isn't enough.
type fileLock struct {
	flock *flock.Flock
}

// newFileLock returns a lock keyed to dir's own ".lock" file, created
// alongside state.json.
func newFileLock(dir string) (*fileLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileLock{flock: flock.New(filepath.Join(dir, ".lock"))}, nil
}

// withLock acquires an exclusive, blocking lock on the session directory,
// runs fn, then releases the lock regardless of fn's outcome.
func withLock(dir string, fn func() error) error {
	l, err := newFileLock(dir)
	if err != nil {
		return err
	}
	if err := l.flock.Lock(); err != nil {
		return err
	}
	defer l.flock.Unlock()
	return fn()
}
