package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitDataDirWritesDefaults(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDataDir(projectDir); err != nil {
		t.Fatalf("init data dir: %v", err)
	}
	for _, rel := range []string{"logs", "storage", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(projectDir, DataDir, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.StorageDriver() != "file" || cfg.StorageKey() != "tasks" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Project.Storage)
	}
	if cfg.UndoWindow() != 5*time.Second {
		t.Fatalf("undo window = %s, want 5s", cfg.UndoWindow())
	}
	if got, want := cfg.StorageDir(), filepath.Join(projectDir, DataDir, "storage"); got != want {
		t.Fatalf("storage dir = %s, want %s", got, want)
	}
	if got, want := cfg.ExportPath(), filepath.Join(projectDir, "tasks.csv"); got != want {
		t.Fatalf("export path = %s, want %s", got, want)
	}
	if cfg.DefaultStatusFilter() != "all" || cfg.DefaultPriorityFilter() != "all" {
		t.Fatalf("unexpected filter defaults")
	}
}

func TestInitDataDirKeepsExistingConfig(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "version: 1\nstorage:\n  driver: sqlite\n")
	if err := InitDataDir(projectDir); err != nil {
		t.Fatalf("init data dir: %v", err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.StorageDriver() != "sqlite" {
		t.Fatalf("driver = %s, want sqlite", cfg.StorageDriver())
	}
	if cfg.StorageKey() != "tasks" {
		t.Fatalf("missing key default: %q", cfg.StorageKey())
	}
}

func TestMissingConfigUsesDefaults(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Locale() != "en" {
		t.Fatalf("locale = %s, want en", cfg.Locale())
	}
}

func TestEnvOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv("ROITRACK_STORAGE_DRIVER", "Memory")
	t.Setenv("ROITRACK_UNDO_WINDOW", "250ms")
	t.Setenv("ROITRACK_LOCALE", "de")
	t.Setenv("ROITRACK_STORAGE_PATH", "/var/tmp/roitrack")
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.StorageDriver() != "memory" {
		t.Fatalf("driver = %s, want memory", cfg.StorageDriver())
	}
	if cfg.UndoWindow() != 250*time.Millisecond {
		t.Fatalf("undo window = %s", cfg.UndoWindow())
	}
	if cfg.Locale() != "de" {
		t.Fatalf("locale = %s", cfg.Locale())
	}
	if cfg.StorageDir() != "/var/tmp/roitrack" {
		t.Fatalf("storage dir = %s", cfg.StorageDir())
	}
}

func TestInvalidConfigIsRejected(t *testing.T) {
	cases := map[string]string{
		"driver":   "storage:\n  driver: postgres\n",
		"window":   "undo:\n  window: soon\n",
		"negative": "undo:\n  window: -1s\n",
		"status":   "display:\n  status: blocked\n",
		"priority": "display:\n  priority: urgent\n",
		"yaml":     "storage: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			writeConfig(t, projectDir, body)
			_, err := NewConfig(projectDir)
			if err == nil {
				t.Fatalf("expected error for %s", name)
			}
			if !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("error not prefixed: %v", err)
			}
		})
	}
}

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	dir := filepath.Join(projectDir, DataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
