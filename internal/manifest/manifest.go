// Package manifest tracks the content fingerprint of every indexed file and
// classifies workspace changes between runs, so re-indexing stays
// proportional to what actually changed.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/flytohub/flyto-indexer/internal/model"
)

// currentVersion is bumped when the on-disk manifest schema changes.
const currentVersion = 1

// FileEntry is the recorded state of one file at the last successful run.
type FileEntry struct {
	Hash     string           `json:"hash"` // hex of 64-bit content hash
	Language string           `json:"language"`
	Symbols  []model.SymbolID `json:"symbols,omitempty"`
}

// Manifest maps path to the file state of the last successful run.
type Manifest struct {
	Version  int                  `json:"version"`
	Projects []string             `json:"projects,omitempty"`
	Files    map[string]FileEntry `json:"files"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Version: currentVersion, Files: map[string]FileEntry{}}
}

// ChangeSet classifies files relative to the previous manifest.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// IsEmpty reports whether no file changed.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// AllChanged returns added plus modified paths.
func (c *ChangeSet) AllChanged() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	sort.Strings(out)
	return out
}

// Summary renders the change counts for logs and scan results.
func (c *ChangeSet) Summary() string {
	return fmt.Sprintf("+%d ~%d -%d", len(c.Added), len(c.Modified), len(c.Deleted))
}

// Hash computes the 64-bit non-cryptographic content hash over bytes with
// newlines normalized to LF, so checkouts with differing line endings agree.
func Hash(content []byte) uint64 {
	h := xxhash.New()
	for i := 0; i < len(content); i++ {
		b := content[i]
		if b == '\r' {
			if i+1 < len(content) && content[i+1] == '\n' {
				continue // CRLF collapses to LF
			}
			b = '\n'
		}
		_, _ = h.Write([]byte{b})
	}
	return h.Sum64()
}

// HashString renders a content hash in the fixed-width hex form stored on disk.
func HashString(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// Diff classifies the current workspace hashes against the manifest.
func (m *Manifest) Diff(current map[string]string) ChangeSet {
	var cs ChangeSet

	for path, hash := range current {
		prev, ok := m.Files[path]
		switch {
		case !ok:
			cs.Added = append(cs.Added, path)
		case prev.Hash != hash:
			cs.Modified = append(cs.Modified, path)
		}
	}
	for path := range m.Files {
		if _, ok := current[path]; !ok {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	return cs
}

// SymbolsOf returns the symbol IDs recorded for a path at the last run.
func (m *Manifest) SymbolsOf(path string) []model.SymbolID {
	return m.Files[path].Symbols
}

// Update records the new state of a file.
func (m *Manifest) Update(path, hash, language string, symbols []model.SymbolID) {
	m.Files[path] = FileEntry{Hash: hash, Language: language, Symbols: symbols}
}

// Remove drops a file from the manifest.
func (m *Manifest) Remove(path string) {
	delete(m.Files, path)
}

// Load reads a manifest from path. A missing file yields an empty manifest;
// a corrupt one is an error so a half-written manifest is never trusted.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = map[string]FileEntry{}
	}
	return &m, nil
}

// Marshal renders the manifest deterministically (sorted keys) for the
// atomic write performed by the store.
func (m *Manifest) Marshal() ([]byte, error) {
	m.Version = currentVersion
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}
