package scorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"github.com/kevpdev/newsletter-automation/resilience"
)

// Article is a single feed item as delivered by the article source.
// Articles are immutable once fetched.
type Article struct {
	ID          string    // Unique identifier, source-provided
	Title       string    // Headline
	Summary     string    // Plain-text summary or excerpt
	URL         string    // Link to the full article
	PublishedAt time.Time // Publication time
	Source      string    // Feed or site name; empty when unknown
}

// ScoredArticle pairs an Article with its model-assigned relevance score.
// Never mutated after creation.
type ScoredArticle struct {
	Article Article
	Score   int    // Relevance score between 1 and 10
	Reason  string // Model explanation for the score
}

// ChatClient is the slice of the OpenAI-compatible chat API the scorer uses.
type ChatClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds the configuration for a Scorer.
type Config struct {
	APIKey               string                // API key for the chat endpoint (required)
	BaseURL              string                // OpenAI-compatible endpoint; empty uses the OpenAI default
	Model                string                // Model identifier sent with each request
	Domain               Domain                // Domain whose prompt template rates the articles
	Prompts              map[Domain]string     // Prompt templates; nil uses ScoringPrompts
	MaxConcurrent        int                   // Maximum concurrent scoring calls in ScoreAll
	Retry                resilience.Config     // Retry budget for chat completion calls
	EnableCircuitBreaker bool                  // Wrap the chat client with a circuit breaker
	CircuitBreakerConfig *CircuitBreakerConfig // Circuit breaker settings
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxRequests   uint32                                      // Max requests in half-open state
	Interval      time.Duration                               // Interval for closed state
	Timeout       time.Duration                               // Timeout for open state
	ReadyToTrip   func(counts gobreaker.Counts) bool          // Custom trip condition
	OnStateChange func(name string, from, to gobreaker.State) // State change callback
}

// Error definitions
var (
	ErrMissingAPIKey = errors.New("chat API key is required")
	ErrUnknownDomain = errors.New("no scoring prompt for domain")
	ErrEmptyResponse = errors.New("chat completion returned no choices")
)

// ValidationError describes a structurally invalid model response. It names
// the field that failed so failures can be diagnosed from logs alone.
// Validation failures are never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s in score response: %s", e.Field, e.Reason)
}

// Internal response type for JSON parsing. The score is decoded as a float
// so fractional model output can be range-checked before rounding.
type scoreResponse struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// scoreResult is a validated (score, reason) pair.
type scoreResult struct {
	Score  int
	Reason string
}
