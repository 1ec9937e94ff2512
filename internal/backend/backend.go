// Package backend provides the text-generation client used by roles and
// safety classifiers. It wraps langchaingo's OpenAI-compatible client, which
// covers OpenAI, Groq and vLLM deployments behind one base URL setting.
package backend

import (
	"context"
	"errors"
	"strings"
)

// Error taxonomy for generation failures. Callers decide retry behavior by
// classification: ErrUnavailable and ErrRateLimited are recoverable,
// ErrMalformed is not.
var (
	// ErrUnavailable indicates the backend could not be reached or returned
	// a transient server-side failure.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrRateLimited indicates the backend rejected the request for quota
	// reasons.
	ErrRateLimited = errors.New("backend rate limited")

	// ErrMalformed indicates the request itself was rejected as invalid;
	// retrying the same request cannot succeed.
	ErrMalformed = errors.New("malformed request")
)

// Recoverable reports whether an error may succeed on retry.
func Recoverable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}

// Generator produces a completion for a prompt. Implementations must honor
// context cancellation; a generation in flight when the context expires
// returns the context error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ClassifyError maps a raw client error onto the taxonomy. Context errors
// pass through untouched so deadline handling upstream stays exact.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrMalformed) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return errors.Join(ErrRateLimited, err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid request") ||
		strings.Contains(msg, "context length") || strings.Contains(msg, "unsupported"):
		return errors.Join(ErrMalformed, err)
	default:
		return errors.Join(ErrUnavailable, err)
	}
}
