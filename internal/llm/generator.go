package llm

import (
	"context"
	"errors"
	"log"
	"time"
)

// FailureSentinel is returned after the retry budget is exhausted.
// Callers always receive text, never an error.
const FailureSentinel = "Exceeded retries. Please try again later."

// EmptyResponse is returned when the service replied without content.
const EmptyResponse = "No content in the response."

// RetryNotifyFunc observes one failed generation attempt that the
// generator is about to retry.
type RetryNotifyFunc func(attempt int, err error)

type retryNotifyKey struct{}

// WithRetryNotify returns a context whose generation calls report each
// retried attempt to fn. The hook rides the context so callers can scope
// observation to one request without sharing state on the Generator.
func WithRetryNotify(ctx context.Context, fn RetryNotifyFunc) context.Context {
	return context.WithValue(ctx, retryNotifyKey{}, fn)
}

func retryNotify(ctx context.Context) RetryNotifyFunc {
	fn, _ := ctx.Value(retryNotifyKey{}).(RetryNotifyFunc)
	return fn
}

// GeneratorConfig bounds the retry loop.
type GeneratorConfig struct {
	MaxRetries     int           // attempts before giving up; default 3
	InitialBackoff time.Duration // wait before the second attempt; default 1s
	Multiplier     float64       // backoff growth per attempt; default 1.5
}

// Generator wraps a Client with retry, backoff, and failure degradation.
// It is an explicitly constructed, caller-owned object; there is no
// process-wide shared handle.
type Generator struct {
	client Client
	cfg    GeneratorConfig
	logger *log.Logger
	sleep  func(time.Duration)
}

// NewGenerator creates a generator, filling zero config fields with
// defaults.
func NewGenerator(client Client, cfg GeneratorConfig, logger *log.Logger) *Generator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 1.5
	}
	return &Generator{
		client: client,
		cfg:    cfg,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Generate runs the prompt against the generation service. Transient
// failures are retried with exponential backoff; an invalid-request
// failure stops immediately since retrying a malformed request cannot
// succeed. The result is always text: the response content, EmptyResponse
// when the service replied with no choices, or FailureSentinel once the
// retry budget is spent.
func (g *Generator) Generate(ctx context.Context, prompt string) string {
	backoff := g.cfg.InitialBackoff
	notify := retryNotify(ctx)

	for attempt := 1; attempt <= g.cfg.MaxRetries; attempt++ {
		text, err := g.client.Complete(ctx, prompt)
		if err == nil {
			if text == "" {
				return EmptyResponse
			}
			return text
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			g.logger.Printf("llm: request rejected, not retrying: %v", err)
			return FailureSentinel
		}

		g.logger.Printf("llm: attempt %d/%d failed: %v", attempt, g.cfg.MaxRetries, err)
		if attempt < g.cfg.MaxRetries {
			if notify != nil {
				notify(attempt, err)
			}
			g.sleep(backoff)
			backoff = time.Duration(float64(backoff) * g.cfg.Multiplier)
		}
	}

	g.logger.Printf("llm: retry budget exhausted")
	return FailureSentinel
}
