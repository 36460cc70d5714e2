package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// stateFileName is the session metadata file within each session
	// directory.
	stateFileName = "state.json"

	// manifestFileName names a per-session manifest file. StoreManifest
	// keeps the manifest inside state.json, and nothing in this package
	// reads or writes this file.
	manifestFileName = "manifest.json"

	// idLength is the number of hex characters in a session id.
	idLength = 12
)

// NewID returns a fresh 12-hex-character session id taken from the hex
// encoding of 16 bytes read from crypto/rand.
func NewID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b[:])[:idLength], nil
}

// saveState persists a session's state.json atomically: write to a temp
// file in the same directory, then rename, so a crash mid-write never
// leaves a partially-written file behind.
func saveState(sess *AnalysisSession) error {
	if err := os.MkdirAll(sess.Dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	statePath := filepath.Join(sess.Dir, stateFileName)
	tmpPath := statePath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	if err := os.Rename(tmpPath, statePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit session state: %w", err)
	}
	return nil
}

// loadState loads a session's state.json from dir.
func loadState(dir string) (*AnalysisSession, error) {
	statePath := filepath.Join(dir, stateFileName)

	data, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("session not found in %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}

	var sess AnalysisSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session state: %w", err)
	}
	sess.Dir = dir
	return &sess, nil
}
