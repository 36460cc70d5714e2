package chunk

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveManifest writes manifest as indented JSON to path, for later lookup
// by chunk id (the extractor's mode (b)); `chunk --manifest-out` writes
// through it, while `--session` stores the manifest in the session state.
func SaveManifest(path string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// LoadManifest reads a manifest previously written by SaveManifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Find returns the chunk with the given id, if present in the manifest.
func (m Manifest) Find(id string) (Chunk, bool) {
	for _, c := range m.Chunks {
		if c.ID == id {
			return c, true
		}
	}
	return Chunk{}, false
}
