package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matchday/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := (&cfg).Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Reconcile.AutoMergeThreshold != 0.95 || cfg.Reconcile.ReviewFloor != 0.80 {
		t.Fatalf("unexpected default thresholds: %+v", cfg.Reconcile)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path != missing {
		t.Fatalf("expected resolved path %q, got %q", missing, path)
	}
	if cfg.Reconcile.MaxCandidates != 64 {
		t.Fatalf("expected default max_candidates, got %d", cfg.Reconcile.MaxCandidates)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[reconcile]
auto_merge_threshold = 0.9
review_floor = 0.7

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.Reconcile.AutoMergeThreshold != 0.9 {
		t.Fatalf("threshold not loaded: %+v", cfg.Reconcile)
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "identity.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Reconcile.AutoMergeThreshold = 0.5
	cfg.Reconcile.ReviewFloor = 0.9
	if err := (&cfg).Validate(); err == nil {
		t.Fatal("expected error when review floor exceeds auto-merge threshold")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "yaml"
	if err := (&cfg).Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "auto_merge_threshold") {
		t.Fatal("sample config missing reconcile section")
	}
}
