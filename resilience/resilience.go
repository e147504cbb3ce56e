// Package resilience wraps outbound network calls with a bounded retry loop.
//
// Every attempt consumes retry budget. Rate-limited attempts (HTTP 429) sleep
// with exponential backoff before the next try; any other failure retries
// immediately while budget remains, so persistent errors surface fast. Each
// attempt and its outcome is logged with metadata only, never payloads.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Config holds the settings for a resilient call.
type Config struct {
	// MaxAttempts is the total attempt budget, including the first try
	MaxAttempts int

	// BaseDelay is the backoff delay after the first rate-limited attempt;
	// subsequent rate-limited attempts double it (1s, 2s, 4s with defaults)
	BaseDelay time.Duration

	// AttemptTimeout bounds each individual attempt. A timed-out attempt
	// counts against the budget. Zero disables the per-attempt bound.
	AttemptTimeout time.Duration

	// IsRateLimit classifies an error as a rate-limit response. Nil uses
	// IsRateLimitError, which recognizes *HTTPError with status 429.
	IsRateLimit func(error) bool
}

// DefaultConfig returns the standard retry budget: 3 attempts, 1s base delay.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      1 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// FeedFetchConfig returns the configuration used for reader API calls.
func FeedFetchConfig() Config {
	cfg := DefaultConfig()
	cfg.AttemptTimeout = 15 * time.Second
	return cfg
}

// ChatConfig returns the configuration used for LLM chat completion calls.
func ChatConfig() Config {
	return DefaultConfig()
}

// MailConfig returns the configuration used for mail API calls.
func MailConfig() Config {
	return DefaultConfig()
}

// HTTPError represents a failed HTTP request with its status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRateLimitError reports whether err is an HTTP 429 response.
func IsRateLimitError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// Do executes op with the retry policy described by cfg. The name identifies
// the call in logs. It returns the first successful result, or the last
// observed error once the attempt budget is exhausted.
//
// op must be safe to repeat: it is invoked once per attempt with a context
// bounded by cfg.AttemptTimeout.
func Do[T any](ctx context.Context, name string, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	isRateLimit := cfg.IsRateLimit
	if isRateLimit == nil {
		isRateLimit = IsRateLimitError
	}

	backoff := retry.NewExponential(cfg.BaseDelay)
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.AttemptTimeout)
		}

		start := time.Now()
		result, err := op(attemptCtx)
		cancel()
		duration := time.Since(start)

		if err == nil {
			if attempt > 1 {
				slog.Info("call succeeded after retry",
					"call", name,
					"attempt", attempt,
					"duration_ms", duration.Milliseconds())
			}
			return result, nil
		}
		lastErr = err

		slog.Warn("call attempt failed",
			"call", name,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"duration_ms", duration.Milliseconds(),
			"error", err)

		// A cancelled parent context means the caller has moved on.
		if errors.Is(err, context.Canceled) {
			return zero, err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if isRateLimit(err) {
			delay, stop := backoff.Next()
			if stop {
				break
			}

			slog.Warn("rate limit hit, backing off",
				"call", name,
				"attempt", attempt,
				"delay", delay)

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, cfg.MaxAttempts, lastErr)
}
