package walker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/flytohub/flyto-indexer/internal/lang"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func paths(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "zeta.py", "x = 1\n")
	writeFile(t, root, "alpha.py", "y = 2\n")
	writeFile(t, root, "sub/mid.py", "z = 3\n")

	entries, err := Walk(root, Options{})
	if err != nil {
		t.Fatal(err)
	}

	got := paths(entries)
	want := append([]string(nil), got...)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("walk order not lexicographic: %v", got)
	}
	if len(got) != 3 {
		t.Errorf("found %d files, want 3", len(got))
	}
}

func TestWalkSkipsDotAndIgnoreDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.py", "a = 1\n")
	writeFile(t, root, ".git/config.py", "b = 2\n")
	writeFile(t, root, "node_modules/pkg/index.js", "c\n")
	writeFile(t, root, ".flyto-index/index.json", "{}\n")

	entries, err := Walk(root, Options{IgnoreDirs: []string{"node_modules"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(entries); len(got) != 1 || got[0] != "keep.py" {
		t.Errorf("entries = %v, want [keep.py]", got)
	}
}

func TestWalkHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n*.gen.py\n")
	writeFile(t, root, "main.py", "a = 1\n")
	writeFile(t, root, "thing.gen.py", "b = 2\n")
	writeFile(t, root, "generated/out.py", "c = 3\n")

	entries, err := Walk(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(entries); len(got) != 1 || got[0] != "main.py" {
		t.Errorf("entries = %v, want [main.py]", got)
	}
}

func TestWalkSizeCapBoundary(t *testing.T) {
	root := t.TempDir()
	atCap := strings.Repeat("a", 64)
	overCap := strings.Repeat("b", 65)
	writeFile(t, root, "at_cap.py", atCap)
	writeFile(t, root, "over_cap.py", overCap)

	entries, err := Walk(root, Options{MaxFileSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	got := paths(entries)
	if len(got) != 1 || got[0] != "at_cap.py" {
		t.Errorf("a file at exactly the cap is included, one over is not: %v", got)
	}
}

func TestWalkLanguageFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")
	writeFile(t, root, "b.go", "package b\n")

	entries, err := Walk(root, Options{Languages: []lang.Language{lang.Go}})
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(entries); len(got) != 1 || got[0] != "b.go" {
		t.Errorf("entries = %v, want [b.go]", got)
	}
}

func TestWalkCancellation(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py"} {
		writeFile(t, root, name, "x = 1\n")
	}

	entries, err := Walk(root, Options{Cancelled: func() bool { return true }})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cancelled walk emitted %d entries", len(entries))
	}
}

func TestWalkRefusesEscapingSymlink(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, outside, "secret.py", "s = 1\n")

	root := t.TempDir()
	writeFile(t, root, "ok.py", "x = 1\n")
	if err := os.Symlink(filepath.Join(outside, "secret.py"), filepath.Join(root, "link.py")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, err := Walk(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Path == "link.py" {
			t.Error("symlink escaping the root must be refused")
		}
	}
}
