// Package config loads the afkbot configuration: the shared core sections plus
// the away-state storage, rendering zone and metrics listener.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/afkbot/core/config"
	coredatabase "github.com/m3rciful/afkbot/core/database"
)

const (
	// StorageFile keeps the away state in a JSON file.
	StorageFile = "file"
	// StoragePostgres keeps the away state in the afk_state table.
	StoragePostgres = "postgres"

	defaultStatePath = "data/afk_state.json"
)

// AFKConfig configures the away feature.
type AFKConfig struct {
	// Timezone is an IANA zone used for recorded start times and rendering.
	Timezone  string `yaml:"timezone" envconfig:"AFK_TIMEZONE"`
	Storage   string `yaml:"storage" envconfig:"AFK_STORAGE"`
	StatePath string `yaml:"state_path" envconfig:"AFK_STATE_PATH"`
}

// MetricsConfig configures the Prometheus endpoint; empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	AFK      AFKConfig           `yaml:"afk"`
	Database coredatabase.Config `yaml:"database"`
	Metrics  MetricsConfig       `yaml:"metrics"`

	location *time.Location
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates core and afk sections and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	tz := strings.TrimSpace(c.AFK.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid afk.timezone %q: %w", c.AFK.Timezone, err)
	}
	c.AFK.Timezone = tz
	c.location = loc

	storage := strings.ToLower(strings.TrimSpace(c.AFK.Storage))
	if storage == "" {
		storage = StorageFile
	}
	switch storage {
	case StorageFile:
		if strings.TrimSpace(c.AFK.StatePath) == "" {
			c.AFK.StatePath = defaultStatePath
		}
	case StoragePostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when afk.storage is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid afk.storage %q; allowed: file, postgres", c.AFK.Storage)
	}
	c.AFK.Storage = storage
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	return nil
}

// CoreConfig exposes the shared core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Location returns the rendering zone, UTC before Normalize.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

// UsesPostgres reports whether away state lives in PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.AFK.Storage == StoragePostgres
}
