package scorer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerClient wraps a ChatClient with circuit breaker protection so
// a failing endpoint sheds load instead of burning the whole retry budget of
// every article in a batch.
type CircuitBreakerClient struct {
	client ChatClient
	cb     *gobreaker.CircuitBreaker[openai.ChatCompletionResponse]
}

// NewCircuitBreakerClient creates a circuit breaker around a chat client.
// A nil config uses the default trip condition: 5 consecutive failures, or a
// failure rate above 60% across at least 10 requests.
func NewCircuitBreakerClient(client ChatClient, config *CircuitBreakerConfig) *CircuitBreakerClient {
	if config == nil {
		config = &CircuitBreakerConfig{
			MaxRequests: 10,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 10 && failureRatio > 0.6)
			},
		}
	}

	settings := gobreaker.Settings{
		Name:        "chat-api",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: config.ReadyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())

			if config.OnStateChange != nil {
				config.OnStateChange(name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !shouldTripCircuit(err)
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker[openai.ChatCompletionResponse](settings),
	}
}

// CreateChatCompletion executes the chat call through the circuit breaker.
func (c *CircuitBreakerClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	resp, err := c.cb.Execute(func() (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, req)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Debug("circuit breaker open, request rejected", "error", err)
		} else if errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Debug("circuit breaker half-open, too many requests", "error", err)
		}
	}

	return resp, err
}

// State returns the current state of the circuit breaker.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.cb.State()
}

// Counts returns the current counts of the circuit breaker.
func (c *CircuitBreakerClient) Counts() gobreaker.Counts {
	return c.cb.Counts()
}

// shouldTripCircuit decides if an error counts as a circuit breaker failure.
// Rate limits and timeouts are expected transients and do not trip; auth and
// server errors do.
func shouldTripCircuit(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return false
		case apiErr.HTTPStatusCode >= 500:
			return true
		case apiErr.HTTPStatusCode >= 400:
			return true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	return true
}
