// Package logging builds the slog loggers used across the reconciliation
// engine and CLI.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for machine consumption. Attr aliases (String, Int64, Float64,
// Error, ...) keep call sites terse, and NewComponentLogger stamps every
// record with the owning component so batch logs can be filtered per
// subsystem.
package logging
