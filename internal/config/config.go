package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for one scheduling run.
type Config struct {
	CommandFile  string        `yaml:"commands"`      // Path of the command list
	Quantum      time.Duration `yaml:"quantum"`       // Time slice per process (default 1s)
	ReadyTimeout time.Duration `yaml:"ready_timeout"` // Bound on launch and rendezvous handshakes
	Stats        bool          `yaml:"stats"`         // Log /proc usage on every resume (default true)
	LogLevel     string        `yaml:"log_level"`     // Log level: debug, info, warn, error
	LogFormat    string        `yaml:"log_format"`    // Log format: text, json, auto
	HistoryPath  string        `yaml:"history"`       // SQLite history database ("" for ~/.mcp/history.db)
	NoHistory    bool          `yaml:"no_history"`    // Skip recording the batch
	TracePath    string        `yaml:"trace"`         // OpenTelemetry span output file ("" disables)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Quantum:      time.Second,
		ReadyTimeout: 10 * time.Second,
		Stats:        true,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// LoadFile overlays the YAML file at path onto cfg. Fields missing from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration can drive a batch.
func (c Config) Validate() error {
	if c.Quantum <= 0 {
		return fmt.Errorf("quantum must be positive, got %s", c.Quantum)
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready timeout must be positive, got %s", c.ReadyTimeout)
	}
	if c.CommandFile == "" {
		return errors.New("no command file given")
	}
	return nil
}
