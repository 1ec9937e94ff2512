// Package logging provides the structured logger for roundtable, a thin
// wrapper around Zap with context correlation and sensitive-value redaction.
package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level     zapcore.Level     `koanf:"level"`
	Format    string            `koanf:"format"`
	Fields    map[string]string `koanf:"fields"`
	Redaction RedactionConfig   `koanf:"redaction"`
}

// RedactionConfig controls sensitive data redaction in log output.
type RedactionConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Fields   []string `koanf:"fields"`
	Patterns []string `koanf:"patterns"`
}

// NewDefaultConfig returns a production-ready default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Redaction: RedactionConfig{
			Enabled: true,
			Fields:  []string{"api_key", "token", "authorization", "password"},
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format %q (must be json or console)", c.Format)
	}
	return nil
}
