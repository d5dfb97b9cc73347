// Package config loads run settings and resolves the well-known Windows
// locations the engine works on.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppName names the per-user config directory and default files.
const AppName = "reclaim"

// Config holds settings read from the YAML config file. Zero values in the
// file leave the defaults in place.
type Config struct {
	LogLevel      string         `yaml:"log_level"`
	LogFile       string         `yaml:"log_file"`
	LogMaxSizeMB  int            `yaml:"log_max_size_mb"`
	LogMaxAgeDays int            `yaml:"log_max_age_days"`
	Workers       int            `yaml:"workers"`
	MaxDepth      int            `yaml:"max_depth"`
	Exclude       []string       `yaml:"exclude"`
	SafeLocations []SafeLocation `yaml:"safe_locations"`
	InstallRoots  []string       `yaml:"install_roots"`
}

// DefaultConfig returns the built-in settings. Workers of zero selects a
// size from the CPU count.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		LogFile:       filepath.Join(Dir(), "logs", AppName+".log"),
		LogMaxSizeMB:  10,
		LogMaxAgeDays: 30,
		Workers:       0,
		MaxDepth:      3,
		SafeLocations: DefaultSafeLocations(),
		InstallRoots:  DefaultInstallRoots(),
	}
}

// MaxMinAgeDays bounds min_age_days; a century is longer than any entry
// on disk has existed.
const MaxMinAgeDays = 36500

// Dir returns the per-user directory holding the config file, logs and the
// instance lock. It lives outside every cleanup location.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = userProfile()
	}
	return filepath.Join(base, AppName)
}

// DefaultPath returns the config file consulted when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LoadConfig reads the YAML file at path over the defaults. A missing file
// yields the defaults; a malformed or invalid one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFile != "" {
		cfg.LogFile = expand(file.LogFile)
	}
	if file.LogMaxSizeMB != 0 {
		cfg.LogMaxSizeMB = file.LogMaxSizeMB
	}
	if file.LogMaxAgeDays != 0 {
		cfg.LogMaxAgeDays = file.LogMaxAgeDays
	}
	if file.Workers != 0 {
		cfg.Workers = file.Workers
	}
	if file.MaxDepth != 0 {
		cfg.MaxDepth = file.MaxDepth
	}
	if len(file.Exclude) > 0 {
		cfg.Exclude = file.Exclude
	}
	if len(file.SafeLocations) > 0 {
		cfg.SafeLocations = file.SafeLocations
	}
	if len(file.InstallRoots) > 0 {
		cfg.InstallRoots = file.InstallRoots
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// MergeWithFlags applies command-line overrides. Nil pointers leave the
// loaded value alone.
func (c *Config) MergeWithFlags(workers, maxDepth *int, debug bool) {
	if workers != nil {
		c.Workers = *workers
	}
	if maxDepth != nil {
		c.MaxDepth = *maxDepth
	}
	if debug {
		c.LogLevel = "debug"
	}
}

// Validate reports settings the engine cannot honour.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxAgeDays < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	for _, loc := range c.SafeLocations {
		if loc.MinAgeDays < 0 {
			return fmt.Errorf("safe location %q: min_age_days must not be negative", loc.Description)
		}
		if loc.MinAgeDays > MaxMinAgeDays {
			return fmt.Errorf("safe location %q: min_age_days must be at most %d, got %d", loc.Description, MaxMinAgeDays, loc.MinAgeDays)
		}
	}
	return nil
}

// Locations returns the resolved safe locations.
func (c *Config) Locations() []SafeLocation {
	return Resolve(c.SafeLocations)
}

// Roots returns the resolved install roots.
func (c *Config) Roots() []string {
	return ResolveRoots(c.InstallRoots)
}
