package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
queue:
  max_size: 42
  save_debounce: 250ms
storage:
  db_path: /tmp/foreman-test.db
server:
  listen: 127.0.0.1:9321
plan:
  path: plan.yaml
  watch: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Queue.MaxSize != 42 {
		t.Errorf("expected max_size 42, got %d", cfg.Queue.MaxSize)
	}
	if cfg.Queue.SaveDebounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %s", cfg.Queue.SaveDebounce)
	}
	if cfg.Storage.DBPath != "/tmp/foreman-test.db" {
		t.Errorf("unexpected db path %q", cfg.Storage.DBPath)
	}
	if cfg.Server.Listen != "127.0.0.1:9321" {
		t.Errorf("unexpected listen %q", cfg.Server.Listen)
	}
	if cfg.Plan.Path != "plan.yaml" || !cfg.Plan.Watch {
		t.Errorf("unexpected plan config %+v", cfg.Plan)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Queue.MaxSize != 500 {
		t.Errorf("expected default max_size 500, got %d", cfg.Queue.MaxSize)
	}
	if cfg.Queue.SaveDebounce != 500*time.Millisecond {
		t.Errorf("expected default 500ms debounce, got %s", cfg.Queue.SaveDebounce)
	}
	if cfg.Server.Listen != "" {
		t.Errorf("expected stdio default, got %q", cfg.Server.Listen)
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	t.Setenv("FOREMAN_TEST_DATA", "/data/foreman")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  db_path: ${FOREMAN_TEST_DATA}/state.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Storage.DBPath != "/data/foreman/state.db" {
		t.Errorf("expected env expansion, got %q", cfg.Storage.DBPath)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
