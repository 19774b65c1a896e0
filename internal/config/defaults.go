package config

const (
	defaultDataDir            = "~/.local/share/matchday/data"
	defaultLogDir             = "~/.local/share/matchday/logs"
	defaultAutoMergeThreshold = 0.95
	defaultReviewFloor        = 0.80
	defaultMaxCandidates      = 64
	defaultDedupeThreshold    = 0.85
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Reconcile: Reconcile{
			AutoMergeThreshold: defaultAutoMergeThreshold,
			ReviewFloor:        defaultReviewFloor,
			MaxCandidates:      defaultMaxCandidates,
			DedupeThreshold:    defaultDedupeThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
