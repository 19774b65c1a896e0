package testsupport

import (
	"path/filepath"
	"testing"

	"matchday/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithThresholds overrides the decision thresholds on the test config.
func WithThresholds(autoMerge, reviewFloor float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Reconcile.AutoMergeThreshold = autoMerge
		cfg.Reconcile.ReviewFloor = reviewFloor
	}
}
