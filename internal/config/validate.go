package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReconcile(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateReconcile() error {
	r := c.Reconcile
	if r.AutoMergeThreshold < 0 || r.AutoMergeThreshold > 1 {
		return errors.New("reconcile.auto_merge_threshold must be between 0 and 1")
	}
	if r.ReviewFloor < 0 || r.ReviewFloor > 1 {
		return errors.New("reconcile.review_floor must be between 0 and 1")
	}
	if r.ReviewFloor > r.AutoMergeThreshold {
		return fmt.Errorf("reconcile.review_floor %.2f must not exceed reconcile.auto_merge_threshold %.2f",
			r.ReviewFloor, r.AutoMergeThreshold)
	}
	if r.DedupeThreshold < 0 || r.DedupeThreshold > 1 {
		return errors.New("reconcile.dedupe_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
