package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Scan.MaxFileSizeBytes != 1<<20 {
		t.Errorf("default size cap = %d, want 1 MiB", cfg.Scan.MaxFileSizeBytes)
	}
	if cfg.Impact.MaxDepth != 2 {
		t.Errorf("default impact depth = %d, want 2", cfg.Impact.MaxDepth)
	}
	if cfg.Search.BoostAlpha != 0.20 {
		t.Errorf("default boost alpha = %v, want 0.20", cfg.Search.BoostAlpha)
	}
	if cfg.Session.BufferSize != 128 {
		t.Errorf("default session buffer = %d, want 128", cfg.Session.BufferSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, IndexDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	body := `{"scan": {"maxFileSizeBytes": 2048, "workers": 2}, "impact": {"maxDepth": 4}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.MaxFileSizeBytes != 2048 || cfg.Scan.Workers != 2 {
		t.Errorf("scan overrides not applied: %+v", cfg.Scan)
	}
	if cfg.Impact.MaxDepth != 4 {
		t.Errorf("impact override not applied: %+v", cfg.Impact)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.K1 != 1.5 {
		t.Errorf("unrelated defaults lost: %+v", cfg.Search)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.BoostAlpha = 3
	if err := cfg.Validate(); err == nil {
		t.Error("boostAlpha > 1 should fail validation")
	}
}

func TestLoadWorkspaceImplicit(t *testing.T) {
	root := t.TempDir()
	ws, err := LoadWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws.Projects) != 1 || ws.Projects[0].Name != filepath.Base(root) {
		t.Errorf("implicit workspace = %+v", ws.Projects)
	}
}

func TestLoadWorkspaceYAML(t *testing.T) {
	root := t.TempDir()
	body := "projects:\n  - name: backend\n    root: services/api\n    languages: [python]\n  - name: frontend\n    root: web\n"
	if err := os.WriteFile(filepath.Join(root, "flyto.yaml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	ws, err := LoadWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws.Projects) != 2 {
		t.Fatalf("projects = %+v", ws.Projects)
	}
	if ws.Projects[0].Name != "backend" || ws.Projects[0].Root != "services/api" {
		t.Errorf("first project = %+v", ws.Projects[0])
	}
	if len(ws.Projects[0].Languages) != 1 || ws.Projects[0].Languages[0] != "python" {
		t.Errorf("language hints = %v", ws.Projects[0].Languages)
	}
}

func TestLoadWorkspaceRejectsNamelessProject(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "flyto.yaml"), []byte("projects:\n  - root: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWorkspace(root); err == nil {
		t.Error("project without a name should fail")
	}
}
