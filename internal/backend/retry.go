package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seaforthlabs/roundtable/internal/logging"
)

// RetryConfig configures retry behavior for generation calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first
	// failure. Default: 2
	MaxRetries int `koanf:"max_retries"`

	// InitialBackoff is the initial backoff duration. Default: 500ms
	InitialBackoff time.Duration `koanf:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration. Default: 10s
	MaxBackoff time.Duration `koanf:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2
	BackoffMultiplier float64 `koanf:"backoff_multiplier"`
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	defaults := DefaultRetryConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
}

// Retry runs op, retrying recoverable failures with exponential backoff.
// Non-recoverable errors and context expiry return immediately. The last
// error is returned when the retry budget is spent.
func Retry(ctx context.Context, cfg RetryConfig, logger *logging.Logger, op func() (string, error)) (string, error) {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}

	var lastErr error
	backoff := cfg.InitialBackoff
	start := time.Now()

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		out, err := op()
		if err == nil {
			if attempt > 0 {
				logger.Info(ctx, "generation recovered after retries",
					zap.Int("attempts", attempt),
					zap.Duration("total_time", time.Since(start)),
				)
			}
			return out, nil
		}

		lastErr = err
		if !Recoverable(err) {
			return "", err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		logger.Warn(ctx, "retrying generation after transient error",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", cfg.MaxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("generation canceled: %w", ctx.Err())
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	return "", lastErr
}
