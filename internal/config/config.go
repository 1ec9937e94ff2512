// Package config provides configuration loading for roundtable.
package config

import (
	"fmt"
	"time"

	"github.com/seaforthlabs/roundtable/internal/backend"
	"github.com/seaforthlabs/roundtable/internal/logging"
	"github.com/seaforthlabs/roundtable/internal/safety"
)

// Config is the root configuration.
type Config struct {
	System  SystemConfig        `koanf:"system"`
	Models  ModelsConfig        `koanf:"models"`
	Safety  SafetyConfig        `koanf:"safety"`
	Server  ServerConfig        `koanf:"server"`
	Tools   ToolsConfig         `koanf:"tools"`
	Retry   backend.RetryConfig `koanf:"retry"`
	Logging logging.Config      `koanf:"logging"`
}

// SystemConfig bounds session execution.
type SystemConfig struct {
	// Topic scopes the assistant. Queries are checked for relevance
	// against it when off-topic enforcement is enabled.
	Topic string `koanf:"topic"`

	// MaxRounds caps role invocations per session.
	MaxRounds int `koanf:"max_rounds"`

	// Timeout bounds a whole session.
	Timeout time.Duration `koanf:"timeout"`

	// MaxContextTurns caps the conversation history handed to each role.
	MaxContextTurns int `koanf:"max_context_turns"`
}

// ModelsConfig names the generation backends.
type ModelsConfig struct {
	// Default serves the roles and the safety classifier.
	Default backend.ModelConfig `koanf:"default"`

	// Judge serves answer quality evaluation. Falls back to Default when
	// unset.
	Judge backend.ModelConfig `koanf:"judge"`
}

// SafetyConfig controls the gate.
type SafetyConfig struct {
	// Strategy is applied to unsafe verdicts: refuse, sanitize, redirect.
	Strategy safety.Strategy `koanf:"strategy"`

	// Prohibited lists the enforced content categories. Structural checks
	// run regardless.
	Prohibited []string `koanf:"prohibited"`

	// UseClassifier enables model-backed checks in addition to patterns.
	UseClassifier bool `koanf:"use_classifier"`

	RefusalMessage  string `koanf:"refusal_message"`
	RedirectMessage string `koanf:"redirect_message"`
	PreviewLen      int    `koanf:"preview_len"`

	// EventLogPath appends gate decisions as JSON lines when set.
	EventLogPath string `koanf:"event_log_path"`
}

// GateConfig converts the safety section into gate settings.
func (c *SafetyConfig) GateConfig() safety.GateConfig {
	return safety.GateConfig{
		Strategy:        c.Strategy,
		RefusalMessage:  c.RefusalMessage,
		RedirectMessage: c.RedirectMessage,
		PreviewLen:      c.PreviewLen,
	}
}

// ServerConfig controls the HTTP daemon.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ToolsConfig controls researcher tooling.
type ToolsConfig struct {
	WebSearch   WebSearchConfig   `koanf:"web_search"`
	PaperSearch PaperSearchConfig `koanf:"paper_search"`
}

// WebSearchConfig configures the web search tool.
type WebSearchConfig struct {
	Enabled    bool   `koanf:"enabled"`
	MaxResults int    `koanf:"max_results"`
	UserAgent  string `koanf:"user_agent"`
}

// PaperSearchConfig configures the academic paper search tool.
type PaperSearchConfig struct {
	Enabled    bool   `koanf:"enabled"`
	BaseURL    string `koanf:"base_url"`
	MaxResults int    `koanf:"max_results"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.System.Topic == "" {
		cfg.System.Topic = "HCI Research"
	}
	if cfg.System.MaxRounds == 0 {
		cfg.System.MaxRounds = 12
	}
	if cfg.System.Timeout == 0 {
		cfg.System.Timeout = 5 * time.Minute
	}
	if cfg.System.MaxContextTurns == 0 {
		cfg.System.MaxContextTurns = 20
	}

	cfg.Models.Default.ApplyDefaults()
	if cfg.Models.Judge.Name == "" {
		cfg.Models.Judge = cfg.Models.Default
	}
	cfg.Models.Judge.ApplyDefaults()

	if cfg.Safety.Strategy == "" {
		cfg.Safety.Strategy = safety.StrategyRefuse
	}
	if len(cfg.Safety.Prohibited) == 0 {
		cfg.Safety.Prohibited = []string{
			string(safety.CategoryHarmfulContent),
			string(safety.CategoryOffTopic),
			string(safety.CategoryPersonalAttacks),
			string(safety.CategoryMisinformation),
			string(safety.CategoryBias),
			string(safety.CategoryFactualInconsistency),
		}
	}
	if cfg.Safety.PreviewLen == 0 {
		cfg.Safety.PreviewLen = safety.DefaultPreviewLen
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Sessions can run for minutes; the write timeout must outlast them.
		cfg.Server.WriteTimeout = cfg.System.Timeout + 30*time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Tools.WebSearch.MaxResults == 0 {
		cfg.Tools.WebSearch.MaxResults = 5
	}
	if cfg.Tools.PaperSearch.MaxResults == 0 {
		cfg.Tools.PaperSearch.MaxResults = 5
	}

	cfg.Retry.ApplyDefaults()

	if cfg.Logging.Format == "" {
		cfg.Logging = *logging.NewDefaultConfig()
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if c.System.MaxRounds < 1 {
		return fmt.Errorf("system.max_rounds must be at least 1, got %d", c.System.MaxRounds)
	}
	if c.System.Timeout <= 0 {
		return fmt.Errorf("system.timeout must be positive, got %s", c.System.Timeout)
	}
	if c.System.MaxContextTurns < 2 {
		return fmt.Errorf("system.max_context_turns must be at least 2, got %d", c.System.MaxContextTurns)
	}
	if !c.Safety.Strategy.Valid() {
		return fmt.Errorf("safety.strategy must be refuse, sanitize or redirect, got %q", c.Safety.Strategy)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.http_port must be in [1, 65535], got %d", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
