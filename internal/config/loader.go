package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load builds the configuration from an optional YAML file and environment
// variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SYSTEM_MAX_ROUNDS, SAFETY_STRATEGY, ...)
//  2. YAML config file
//  3. Defaults
//
// A missing file is not an error; an unreadable or oversized one is.
// Environment variables map to config keys by lowercasing and splitting on
// the first underscore:
//
//	SYSTEM_MAX_ROUNDS -> system.max_rounds
//	SERVER_HTTP_PORT  -> server.http_port
//	SAFETY_STRATEGY   -> safety.strategy
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFile reads a YAML config file into k. The file is read through an
// open descriptor so the size check and the read see the same file.
func loadFile(k *koanf.Koanf, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	if info.Mode().Perm()&0o002 != 0 {
		return fmt.Errorf("config file %s is world-writable; tighten its permissions", path)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
