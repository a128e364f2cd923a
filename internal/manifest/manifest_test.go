package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashNormalizesLineEndings(t *testing.T) {
	lf := Hash([]byte("a\nb\nc\n"))
	crlf := Hash([]byte("a\r\nb\r\nc\r\n"))
	cr := Hash([]byte("a\rb\rc\r"))

	if lf != crlf {
		t.Error("CRLF content should hash equal to LF content")
	}
	if lf != cr {
		t.Error("CR content should hash equal to LF content")
	}
	if Hash([]byte("a\nb\n")) == lf {
		t.Error("different content should hash differently")
	}
}

func TestHashStringWidth(t *testing.T) {
	if got := HashString(0x1); len(got) != 16 {
		t.Errorf("HashString length = %d, want 16", len(got))
	}
}

func TestDiffClassification(t *testing.T) {
	m := New()
	m.Update("a.py", "h1", "python", nil)
	m.Update("b.py", "h2", "python", nil)
	m.Update("c.py", "h3", "python", nil)

	cs := m.Diff(map[string]string{
		"a.py": "h1",       // unchanged
		"b.py": "changed",  // modified
		"d.py": "new-hash", // added
	})

	if len(cs.Added) != 1 || cs.Added[0] != "d.py" {
		t.Errorf("Added = %v, want [d.py]", cs.Added)
	}
	if len(cs.Modified) != 1 || cs.Modified[0] != "b.py" {
		t.Errorf("Modified = %v, want [b.py]", cs.Modified)
	}
	if len(cs.Deleted) != 1 || cs.Deleted[0] != "c.py" {
		t.Errorf("Deleted = %v, want [c.py]", cs.Deleted)
	}
	if cs.IsEmpty() {
		t.Error("change set should not be empty")
	}
	if got := cs.Summary(); got != "+1 ~1 -1" {
		t.Errorf("Summary = %q, want %q", got, "+1 ~1 -1")
	}
}

func TestDiffEmptyOnIdenticalWorkspace(t *testing.T) {
	m := New()
	m.Update("a.py", "h1", "python", nil)

	cs := m.Diff(map[string]string{"a.py": "h1"})
	if !cs.IsEmpty() {
		t.Errorf("expected empty change set, got %s", cs.Summary())
	}
}

func TestLoadMissingYieldsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "manifest.json"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(m.Files) != 0 {
		t.Errorf("expected empty manifest, got %d files", len(m.Files))
	}
}

func TestLoadCorruptFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("corrupt manifest should not load")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m := New()
	m.Update("src/a.py", "00000000000000ab", "python", nil)
	m.Projects = []string{"demo"}

	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Files["src/a.py"].Hash != "00000000000000ab" {
		t.Errorf("hash = %q after round trip", loaded.Files["src/a.py"].Hash)
	}

	again, err := loaded.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Error("marshal -> load -> marshal should be byte-identical")
	}
}
