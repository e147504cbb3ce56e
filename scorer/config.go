package scorer

import (
	"fmt"
	"time"

	"github.com/kevpdev/newsletter-automation/resilience"
)

// NewDefaultConfig creates a config with sensible defaults for a domain.
func NewDefaultConfig(apiKey string, domain Domain) Config {
	return Config{
		APIKey:        apiKey,
		Domain:        domain,
		MaxConcurrent: defaultMaxConcurrent,
		Retry:         resilience.ChatConfig(),
	}
}

// WithModel sets the chat model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithBaseURL points the scorer at an OpenAI-compatible endpoint.
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

// WithMaxConcurrent sets the maximum concurrent scoring calls.
func (c Config) WithMaxConcurrent(max int) Config {
	c.MaxConcurrent = max
	return c
}

// WithRetry sets the retry budget for chat completion calls.
func (c Config) WithRetry(maxAttempts int, baseDelay time.Duration) Config {
	c.Retry.MaxAttempts = maxAttempts
	c.Retry.BaseDelay = baseDelay
	return c
}

// WithCircuitBreaker enables the circuit breaker with default settings.
func (c Config) WithCircuitBreaker() Config {
	c.EnableCircuitBreaker = true
	return c
}

// WithPrompts replaces the default prompt templates. The map is consulted at
// construction time only.
func (c Config) WithPrompts(prompts map[Domain]string) Config {
	c.Prompts = prompts
	return c
}

// Validate checks if the config is valid.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	prompts := c.Prompts
	if prompts == nil {
		prompts = ScoringPrompts
	}
	if _, ok := prompts[c.Domain]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, c.Domain)
	}

	if c.MaxConcurrent < 0 {
		return fmt.Errorf("MaxConcurrent must be non-negative, got %d", c.MaxConcurrent)
	}

	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry MaxAttempts must be non-negative, got %d", c.Retry.MaxAttempts)
	}

	return nil
}
