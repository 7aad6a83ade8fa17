// Package config provides centralized configuration management for the importer.
// Values come from environment variables (optionally seeded from a .env file by
// the caller) with sensible defaults, and are validated up front so a bad
// setting fails the run before any file or database work starts.
package config

import (
	"fmt"
	"time"
)

// Config holds all importer configuration.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 4).
	// A run holds one connection: the identifier scan shares the transaction's.
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds card import settings.
type ImportConfig struct {
	// File is the path of the source CSV (default: data/cards.csv)
	File string `env:"IMPORT_FILE" default:"data/cards.csv"`

	// BatchSize is the number of cards persisted per flush (default: 1000)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"1000"`

	// Limit caps the number of source rows examined; 0 means no limit
	Limit int `env:"IMPORT_LIMIT" default:"0"`

	// Table is the target table name (default: cards)
	Table string `env:"IMPORT_TABLE" default:"cards"`

	// ReclaimMemory forces a GC pass after every flushed batch (default: true)
	ReclaimMemory bool `env:"IMPORT_RECLAIM_MEMORY" default:"true"`

	// UnescapeText converts literal "\n" sequences in card text to newlines (default: true)
	UnescapeText bool `env:"IMPORT_UNESCAPE_TEXT" default:"true"`

	// UseCopy persists batches with the COPY protocol instead of INSERTs (default: true)
	UseCopy bool `env:"IMPORT_USE_COPY" default:"true"`

	// Timeout bounds the whole run; 0 disables it (default: 0s)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, "+
			"Import: {File: %q, BatchSize: %d, Limit: %d, Table: %q, ReclaimMemory: %v, UnescapeText: %v, UseCopy: %v}, "+
			"Logging: {Level: %q, Format: %q}}",
		c.Database.MaxConns, c.Database.MinConns,
		c.Import.File, c.Import.BatchSize, c.Import.Limit, c.Import.Table,
		c.Import.ReclaimMemory, c.Import.UnescapeText, c.Import.UseCopy,
		c.Logging.Level, c.Logging.Format,
	)
}
