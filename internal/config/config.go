// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Layer defaults -> optional YAML file -> environment variables.
// - External errors are wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres connection string. Empty selects the
	// in-memory store, which loses all data on restart.
	DatabaseURL string `koanf:"database_url"`

	// DBMaxConns caps the database connection pool.
	DBMaxConns int `koanf:"db_max_conns"`

	// TriggerBufferSize bounds the match-trigger queue.
	TriggerBufferSize int `koanf:"trigger_buffer_size"`

	// MatchScanIntervalMS sets the periodic queue rescan interval.
	MatchScanIntervalMS int `koanf:"match_scan_interval_ms"`

	// RoomDurationSeconds is how long a room may stay open before the
	// timer sweep terminates it.
	RoomDurationSeconds int `koanf:"room_duration_seconds"`

	// RoomSweepIntervalMS sets how often expired rooms are looked for.
	RoomSweepIntervalMS int `koanf:"room_sweep_interval_ms"`
}

// New creates a Config with defaults. Context is accepted first to match
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DatabaseURL:         "",
		DBMaxConns:          10,
		TriggerBufferSize:   1024,
		MatchScanIntervalMS: 3_000,
		RoomDurationSeconds: 600,
		RoomSweepIntervalMS: 5_000,
	}
}
