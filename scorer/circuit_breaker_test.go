package scorer_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"github.com/kevpdev/newsletter-automation/scorer"
)

var _ = Describe("CircuitBreakerClient", func() {
	var (
		ctx  context.Context
		mock *mockChatClient
	)

	BeforeEach(func() {
		ctx = context.Background()
		mock = &mockChatClient{respond: func(openai.ChatCompletionRequest) (string, error) {
			return `{"score": 5, "reason": "fine"}`, nil
		}}
	})

	It("passes successful calls through in the closed state", func() {
		cb := scorer.NewCircuitBreakerClient(mock, nil)

		resp, err := cb.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})

		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Choices).To(HaveLen(1))
		Expect(cb.State()).To(Equal(gobreaker.StateClosed))
	})

	It("opens after consecutive server errors", func() {
		mock.respond = func(openai.ChatCompletionRequest) (string, error) {
			return "", &openai.APIError{
				Code:           "internal_server_error",
				Message:        "Internal server error",
				HTTPStatusCode: 500,
			}
		}

		cb := scorer.NewCircuitBreakerClient(mock, &scorer.CircuitBreakerConfig{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})

		for i := 0; i < 3; i++ {
			_, err := cb.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
			Expect(err).To(HaveOccurred())
		}

		Expect(cb.State()).To(Equal(gobreaker.StateOpen))

		_, err := cb.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
		Expect(errors.Is(err, gobreaker.ErrOpenState)).To(BeTrue())
		Expect(mock.callCount()).To(Equal(3))
	})

	It("does not count rate limits as breaker failures", func() {
		mock.respond = func(openai.ChatCompletionRequest) (string, error) {
			return "", &openai.APIError{
				Code:           "rate_limit_exceeded",
				Message:        "Rate limit exceeded",
				HTTPStatusCode: 429,
			}
		}

		cb := scorer.NewCircuitBreakerClient(mock, &scorer.CircuitBreakerConfig{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})

		for i := 0; i < 5; i++ {
			_, err := cb.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
			Expect(err).To(HaveOccurred())
		}

		Expect(cb.State()).To(Equal(gobreaker.StateClosed))
	})

	It("notifies the state change callback", func() {
		mock.respond = func(openai.ChatCompletionRequest) (string, error) {
			return "", &openai.APIError{HTTPStatusCode: 500, Message: "boom"}
		}

		var transitions []gobreaker.State
		cb := scorer.NewCircuitBreakerClient(mock, &scorer.CircuitBreakerConfig{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 2
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				transitions = append(transitions, to)
			},
		})

		for i := 0; i < 2; i++ {
			_, _ = cb.CreateChatCompletion(ctx, openai.ChatCompletionRequest{})
		}

		Expect(transitions).To(ContainElement(gobreaker.StateOpen))
	})
})
