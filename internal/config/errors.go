package config

import "errors"

// Sentinel kinds for configuration errors, matched with errors.Is.
var (
	// ErrInvalidConfig marks a loaded config that failed validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure reading or decoding a config source.
	ErrLoadConfig = errors.New("load config failed")
)
