package reconcile

import (
	"fmt"

	"matchday/internal/config"
)

// Options carries the per-run thresholds. Both thresholds are inclusive: a
// confidence exactly at AutoMergeThreshold merges, exactly at ReviewFloor
// flags.
type Options struct {
	AutoMergeThreshold float64
	ReviewFloor        float64
	MaxCandidates      int
}

// OptionsFromConfig builds run options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AutoMergeThreshold: cfg.Reconcile.AutoMergeThreshold,
		ReviewFloor:        cfg.Reconcile.ReviewFloor,
		MaxCandidates:      cfg.Reconcile.MaxCandidates,
	}
}

func (o Options) validate() error {
	if o.AutoMergeThreshold <= 0 || o.AutoMergeThreshold > 1 {
		return fmt.Errorf("auto-merge threshold %.3f outside (0, 1]", o.AutoMergeThreshold)
	}
	if o.ReviewFloor <= 0 || o.ReviewFloor > o.AutoMergeThreshold {
		return fmt.Errorf("review floor %.3f outside (0, %.3f]", o.ReviewFloor, o.AutoMergeThreshold)
	}
	if o.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive, got %d", o.MaxCandidates)
	}
	return nil
}
