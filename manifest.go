package relift

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// manifest records what a cache entry was computed for. A payload is only
// trusted when its manifest's fingerprint still matches the live source and
// its output hash matches the payload bytes.
type manifest struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	OutputHash  string      `json:"outputHash"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// loadManifest reads and unmarshals a manifest file.
func (s *Store) loadManifest(path string) (*manifest, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// saveManifest marshals and atomically writes a manifest file.
func (s *Store) saveManifest(path string, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := s.writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place. Concurrent readers either see the previous
// complete file or the new complete file, never a torn write; concurrent
// writers racing on the same entry both produce identical bytes (transforms
// are deterministic), so last-rename-wins is consistent either way.
func (s *Store) writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}
