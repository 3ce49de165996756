// Package config loads, normalizes, and validates pitchdna configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PITCHDNA_LOG_LEVEL. The Config type centralizes every knob the stage
// commands need: catalog endpoints and throttles, resolver thresholds,
// checkpoint cadence, and input column names.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
