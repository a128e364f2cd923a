package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/flytohub/flyto-indexer/internal/model"
)

// ContentRecord is one line of content.jsonl: the body of a symbol, kept out
// of index.json so queries that don't need bodies stay cheap.
type ContentRecord struct {
	ID   model.SymbolID `json:"id"`
	Body string         `json:"body"`
}

// AppendContent appends records to content.jsonl. Superseded entries for the
// same ID are left in place; readers keep the last occurrence and
// CompactContent rewrites the log.
func AppendContent(dir string, records []ContentRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, ContentFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open content log: %w", err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	w := bufio.NewWriter(f)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal content record: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to append content record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush content log: %w", err)
	}
	return f.Sync()
}

// LoadContent reads content.jsonl into an ID-to-body map. For duplicated IDs
// the last line wins. Undecodable lines are skipped.
func LoadContent(dir string) (map[model.SymbolID]string, error) {
	f, err := os.Open(filepath.Join(dir, ContentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[model.SymbolID]string{}, nil
		}
		return nil, fmt.Errorf("failed to open content log: %w", err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	out := make(map[model.SymbolID]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		var rec ContentRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		out[rec.ID] = rec.Body
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan content log: %w", err)
	}
	return out, nil
}

// CompactContent rewrites content.jsonl keeping only the IDs in keep, one
// line per symbol in ID order. The rewrite is atomic.
func CompactContent(dir string, keep map[model.SymbolID]struct{}) error {
	current, err := LoadContent(dir)
	if err != nil {
		return err
	}

	ids := make([]model.SymbolID, 0, len(current))
	for id := range current {
		if _, ok := keep[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf []byte
	for _, id := range ids {
		line, err := json.Marshal(ContentRecord{ID: id, Body: current[id]})
		if err != nil {
			return fmt.Errorf("failed to marshal content record: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	return WriteFileAtomic(dir, ContentFile, buf)
}
