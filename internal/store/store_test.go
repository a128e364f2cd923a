package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/model"
)

func TestWriteFileAtomicReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomic(dir, "x.json", []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(dir, "x.json", []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, ok, err := ReadFile(dir, "x.json")
	if err != nil || !ok {
		t.Fatalf("ReadFile = (%v, %v)", ok, err)
	}
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadFileMissingIsNotAnError(t *testing.T) {
	data, ok, err := ReadFile(t.TempDir(), "absent.json")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if ok || data != nil {
		t.Error("missing file should report absent")
	}
}

func TestLockExcludesSecondWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".flyto-index")

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("first AcquireLock: %v", err)
	}
	defer lock.Release()

	if _, err := AcquireLock(dir); errors.CodeOf(err) != errors.IndexLocked {
		t.Errorf("second writer error = %v, want index_locked", err)
	}

	lock.Release()
	second, err := AcquireLock(dir)
	if err != nil {
		t.Errorf("lock should be acquirable after release: %v", err)
	}
	second.Release()
}

func TestContentAppendLoadCompact(t *testing.T) {
	dir := t.TempDir()

	idA := model.MakeSymbolID("p", "a.py", model.KindFunction, "a")
	idB := model.MakeSymbolID("p", "b.py", model.KindFunction, "b")

	if err := AppendContent(dir, []ContentRecord{{ID: idA, Body: "def a(): pass"}}); err != nil {
		t.Fatal(err)
	}
	// A re-parse appends a superseding record for the same ID.
	if err := AppendContent(dir, []ContentRecord{
		{ID: idA, Body: "def a(): return 1"},
		{ID: idB, Body: "def b(): pass"},
	}); err != nil {
		t.Fatal(err)
	}

	bodies, err := LoadContent(dir)
	if err != nil {
		t.Fatal(err)
	}
	if bodies[idA] != "def a(): return 1" {
		t.Errorf("last append should win: %q", bodies[idA])
	}

	// Compaction drops b and rewrites one line per kept symbol.
	if err := CompactContent(dir, map[model.SymbolID]struct{}{idA: {}}); err != nil {
		t.Fatal(err)
	}
	bodies, err = LoadContent(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 1 {
		t.Errorf("compacted content holds %d entries, want 1", len(bodies))
	}
	if _, ok := bodies[idB]; ok {
		t.Error("dropped symbol survived compaction")
	}
}

func TestArchiveWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFileAtomic(dir, IndexFile, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dir, ManifestFile, []byte("{}")); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "snapshot.tar.zst")
	if err := Archive(dir, dest); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("archive missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("archive is empty")
	}
}
