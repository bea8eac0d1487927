// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"log/slog"

	"github.com/halvard/muninn/internal/capture"
)

// Config represents the application configuration stored in brain.yaml.
// The file doubles as the brain marker; absent keys keep their defaults.
type Config struct {
	Log       LogConfig      `yaml:"log"`
	Clipboard capture.Config `yaml:"clipboard"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return c.Clipboard.Validate()
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level slog.Level `yaml:"level"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: slog.LevelInfo,
		},
		Clipboard: capture.DefaultConfig(),
	}
}
