// Package store owns the on-disk index directory: atomic file replacement,
// the writer lock, the symbol content log, and index archives.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Index directory file names.
const (
	ManifestFile   = "manifest.json"
	IndexFile      = "index.json"
	ContentFile    = "content.jsonl"
	BM25File       = "bm25.json"
	SessionFile    = "session.json"
	ProjectMapFile = "project_map.json" // written by external collaborators, read-only here
)

// WriteFileAtomic replaces dir/name by writing to a temp file in the same
// directory, fsyncing, and renaming onto the target. Readers observing the
// target concurrently see either the old or the new content, never a partial
// write.
func WriteFileAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s into place: %w", name, err)
	}
	return nil
}

// ReadFile reads dir/name. A missing file returns (nil, false, nil) so first
// runs are not errors.
func ReadFile(dir, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, true, nil
}
