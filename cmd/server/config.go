package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/napolitain/resource-engine/internal/transport/ws"
)

// Config is the server configuration file
type Config struct {
	Listen            string        `yaml:"listen"`
	Database          string        `yaml:"database"`
	JournalDir        string        `yaml:"journal_dir"`
	Catalog           string        `yaml:"catalog"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	SaveInterval      time.Duration `yaml:"save_interval"`
	LogLevel          string        `yaml:"log_level"`

	WS       WSConfig       `yaml:"ws"`
	Entities []EntityConfig `yaml:"entities"`
}

// WSConfig tunes client connections
type WSConfig struct {
	ReadTimeout time.Duration `yaml:"read_timeout"`
	RatePerSec  float64       `yaml:"rate_per_sec"`
	Burst       int           `yaml:"burst"`
}

// EntityConfig declares one producer registered at startup
type EntityConfig struct {
	ID      int64              `yaml:"id"`
	Owner   int                `yaml:"owner"`
	Start   map[string]float64 `yaml:"start"`
	Bonuses []string           `yaml:"bonuses"`
}

// DefaultConfig returns the settings used for missing fields
func DefaultConfig() Config {
	return Config{
		Listen:            ":8080",
		Database:          "engine.db",
		JournalDir:        "journal",
		Catalog:           "data/bonuses.yaml",
		BroadcastInterval: time.Second,
		SaveInterval:      30 * time.Second,
		LogLevel:          "info",
	}
}

// LoadConfig reads a YAML config over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks intervals and entity declarations
func (c Config) Validate() error {
	if c.BroadcastInterval <= 0 || c.SaveInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	seen := make(map[int64]bool, len(c.Entities))
	for _, e := range c.Entities {
		if seen[e.ID] {
			return fmt.Errorf("entity %d declared twice", e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

func (c Config) wsConfig() ws.Config {
	return ws.Config{ReadTimeout: c.WS.ReadTimeout, RatePerSec: c.WS.RatePerSec, Burst: c.WS.Burst}
}
