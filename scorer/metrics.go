package scorer

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

var (
	articlesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_articles_scored_total",
			Help: "Total number of articles successfully scored",
		},
	)

	articlesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_articles_failed_total",
			Help: "Total number of articles that failed scoring",
		},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_scoring_batch_size",
			Help:    "Number of articles per scoring batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_scoring_errors_total",
			Help: "Total number of scoring errors by type",
		},
		[]string{"error_type"},
	)

	scoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_score_distribution",
			Help:    "Distribution of article scores (1-10)",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	apiTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_api_tokens_used_total",
			Help: "Total number of tokens used in chat API calls",
		},
		[]string{"type"}, // prompt, completion
	)
)

// MetricsRecorder provides methods to record scoring metrics.
type MetricsRecorder struct {
	enabled bool
}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder(enabled bool) *MetricsRecorder {
	return &MetricsRecorder{enabled: enabled}
}

// RecordArticlesScored records successfully scored articles.
func (m *MetricsRecorder) RecordArticlesScored(count int) {
	if !m.enabled {
		return
	}
	articlesScored.Add(float64(count))
}

// RecordArticlesFailed records articles that failed scoring.
func (m *MetricsRecorder) RecordArticlesFailed(count int) {
	if !m.enabled {
		return
	}
	articlesFailed.Add(float64(count))
}

// RecordBatchSize records the size of a scoring batch.
func (m *MetricsRecorder) RecordBatchSize(size int) {
	if !m.enabled {
		return
	}
	batchSize.Observe(float64(size))
}

// RecordError records an error by type.
func (m *MetricsRecorder) RecordError(errorType string) {
	if !m.enabled {
		return
	}
	errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordScore records a validated article score.
func (m *MetricsRecorder) RecordScore(score int) {
	if !m.enabled {
		return
	}
	scoreDistribution.Observe(float64(score))
}

// RecordTokensUsed records tokens consumed by a chat call.
func (m *MetricsRecorder) RecordTokensUsed(tokenType string, count int) {
	if !m.enabled {
		return
	}
	apiTokensUsed.WithLabelValues(tokenType).Add(float64(count))
}

// GetMetricsHandler returns an HTTP handler for Prometheus metrics.
func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}

// classifyError returns an error type label for metrics.
func classifyError(err error) string {
	if err == nil {
		return "none"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return "rate_limit"
		case apiErr.HTTPStatusCode >= 500:
			return "server_error"
		case apiErr.HTTPStatusCode >= 400:
			return "client_error"
		default:
			return "api_error"
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	if errors.Is(err, gobreaker.ErrOpenState) {
		return "circuit_open"
	}

	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_half_open"
	}

	return "unknown"
}
