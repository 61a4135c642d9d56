// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to pipeline components (DB, fetcher) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the seeder is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Yomira seeding pipeline.
type Config struct {

	// Runtime settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`

	// Relational Database (PostgreSQL).
	// Optional at parse time: dry runs never open a connection, so the
	// requirement is enforced by [Config.Validate] only for live runs.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// MigrateOnStart applies pending migrations before seeding begins.
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"false"`

	// Key-Value Cache (Redis). When set, the image content-hash registry is
	// persisted there so deduplication survives across runs. Empty means the
	// registry lives only for the lifetime of the process.
	RedisURL string `env:"REDIS_URL"`

	// Input & output locations
	InputDir   string `env:"INPUT_DIR"   envDefault:"./data/export"`
	StorageDir string `env:"STORAGE_DIR" envDefault:"./data/images"`
	ReportDir  string `env:"REPORT_DIR"  envDefault:"./data/reports"`

	// Pipeline tuning
	BatchSize           int     `env:"BATCH_SIZE"            envDefault:"100"`
	DownloadConcurrency int     `env:"DOWNLOAD_CONCURRENCY"  envDefault:"10"`
	DownloadRPS         float64 `env:"DOWNLOAD_RPS"          envDefault:"25"`
	MaxImageBytes       int64   `env:"MAX_IMAGE_BYTES"       envDefault:"10485760"`
	FuzzyThreshold      float64 `env:"FUZZY_THRESHOLD"       envDefault:"90"`

	// SeedUserPassword is the temporary password assigned to freshly seeded
	// accounts. Users are forced to reset it on first login by the main API.
	SeedUserPassword string `env:"SEED_USER_PASSWORD" envDefault:"yomira-reset-me"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// Validate checks requirements that depend on the run mode.
// A live run needs a database; a dry run does not.
func (c *Config) Validate(dryRun bool) error {
	if !dryRun && c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required unless running with -dry-run")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.DownloadConcurrency <= 0 {
		return fmt.Errorf("config: DOWNLOAD_CONCURRENCY must be positive, got %d", c.DownloadConcurrency)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("config: FUZZY_THRESHOLD must be within [0, 100], got %g", c.FuzzyThreshold)
	}
	return nil
}

// IsDevelopment reports whether the seeder is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the seeder is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
