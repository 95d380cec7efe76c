package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a claimscan run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"

	// load
	FilePath    string
	Force       bool
	KeepStaging bool

	// analyze
	OutputDir string
	Sections  []int
	SkipFraud bool

	Thresholds Thresholds
}

// LoadThresholdsFile reads a YAML thresholds file and merges its values over
// the defaults already present in c.Thresholds.
func (c *Config) LoadThresholdsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read thresholds file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.Thresholds); err != nil {
		return fmt.Errorf("parse thresholds file: %w", err)
	}
	return c.Thresholds.Validate()
}

// Validate checks required fields for a load run.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or CLAIMSTATS_DB_URL is required")
	}
	return nil
}
