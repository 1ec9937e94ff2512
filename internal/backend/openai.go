package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// ModelConfig configures a single model endpoint.
type ModelConfig struct {
	// Name is the model identifier, e.g. "gpt-4o-mini" or
	// "llama-3.1-8b-instant".
	Name string `koanf:"name"`

	// BaseURL points at an OpenAI-compatible API. Groq and vLLM endpoints
	// work here unchanged.
	BaseURL string `koanf:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `koanf:"api_key_env"`

	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`

	// RequestsPerSecond caps the client-side call rate. Zero disables the
	// limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ModelConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "gpt-4o-mini"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
}

// Client is a Generator backed by an OpenAI-compatible chat endpoint.
type Client struct {
	llm     llms.Model
	cfg     ModelConfig
	limiter *rate.Limiter
}

// NewClient builds a Client from config. The API key is read from the
// environment variable named in cfg.APIKeyEnv.
func NewClient(cfg ModelConfig) (*Client, error) {
	cfg.ApplyDefaults()

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable %s", cfg.APIKeyEnv)
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Name),
		openai.WithToken(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{llm: llm, cfg: cfg, limiter: limiter}, nil
}

// Generate produces a completion for the prompt. Errors are classified into
// the package taxonomy.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(c.cfg.Temperature),
		llms.WithMaxTokens(c.cfg.MaxTokens),
	)
	if err != nil {
		return "", ClassifyError(err)
	}
	return out, nil
}
