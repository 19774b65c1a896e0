// Package config loads, normalizes, and validates matchday configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// reconciliation engine and CLI need: data and log directories, decision
// thresholds, and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
