package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/kevpdev/newsletter-automation/resilience"
)

// Scorer rates articles for one domain using an LLM chat endpoint.
type Scorer struct {
	client   ChatClient
	model    string
	domain   Domain
	template string
	retry    resilience.Config
	maxConc  int
	metrics  *MetricsRecorder
}

// New creates a Scorer from the given configuration.
func New(cfg Config) (*Scorer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	var client ChatClient = openai.NewClientWithConfig(clientCfg)
	if cfg.EnableCircuitBreaker {
		client = NewCircuitBreakerClient(client, cfg.CircuitBreakerConfig)
	}

	return newScorer(client, cfg)
}

// NewWithClient creates a Scorer around an existing chat client. Used by
// tests and by callers that manage their own transport.
func NewWithClient(client ChatClient, cfg Config) (*Scorer, error) {
	return newScorer(client, cfg)
}

func newScorer(client ChatClient, cfg Config) (*Scorer, error) {
	prompts := cfg.Prompts
	if prompts == nil {
		prompts = ScoringPrompts
	}

	template, ok := prompts[cfg.Domain]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, cfg.Domain)
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = defaultMaxConcurrent
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 && retry.BaseDelay == 0 {
		retry = resilience.ChatConfig()
	}
	if retry.IsRateLimit == nil {
		retry.IsRateLimit = isRateLimited
	}

	return &Scorer{
		client:   client,
		model:    model,
		domain:   cfg.Domain,
		template: template,
		retry:    retry,
		maxConc:  maxConc,
		metrics:  NewMetricsRecorder(true),
	}, nil
}

// Domain returns the domain this scorer was built for.
func (s *Scorer) Domain() Domain { return s.domain }

// Score rates a single article. The chat call is made through the resilient
// caller; a structurally invalid response fails immediately without retry.
func (s *Scorer) Score(ctx context.Context, article Article) (ScoredArticle, error) {
	prompt := buildPrompt(s.template, sanitizeArticle(article))

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := resilience.Do(ctx, "chat completion", s.retry,
		func(ctx context.Context) (openai.ChatCompletionResponse, error) {
			return s.client.CreateChatCompletion(ctx, req)
		})
	if err != nil {
		s.metrics.RecordError(classifyError(err))
		return ScoredArticle{}, fmt.Errorf("scoring article %s: %w", article.ID, err)
	}

	if len(resp.Choices) == 0 {
		s.metrics.RecordError("empty_response")
		return ScoredArticle{}, fmt.Errorf("scoring article %s: %w", article.ID, ErrEmptyResponse)
	}

	s.metrics.RecordTokensUsed("prompt", resp.Usage.PromptTokens)
	s.metrics.RecordTokensUsed("completion", resp.Usage.CompletionTokens)

	result, err := parseScoreResponse(resp.Choices[0].Message.Content)
	if err != nil {
		s.metrics.RecordError("validation")
		slog.Error("score response failed validation",
			"article_id", article.ID,
			"error", err)
		return ScoredArticle{}, fmt.Errorf("scoring article %s: %w", article.ID, err)
	}

	s.metrics.RecordScore(result.Score)

	slog.Info("article scored",
		"article_id", article.ID,
		"title", truncate(article.Title, 50),
		"score", result.Score)

	return ScoredArticle{
		Article: article,
		Score:   result.Score,
		Reason:  result.Reason,
	}, nil
}

// isRateLimited classifies chat API errors for the resilient caller's backoff
// decision. Only HTTP 429 responses back off; everything else retries
// immediately.
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return resilience.IsRateLimitError(err)
}

func truncate(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
