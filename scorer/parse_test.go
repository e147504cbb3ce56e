package scorer_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/kevpdev/newsletter-automation/scorer"
)

func errorsAs(err error, target **scorer.ValidationError) bool {
	return errors.As(err, target)
}

// Response validation is exercised through Score with a mock client so the
// full strip-parse-validate path runs, including the no-retry guarantee for
// validation failures.
var _ = Describe("Response validation", func() {
	var (
		ctx     context.Context
		mock    *mockChatClient
		s       *scorer.Scorer
		article scorer.Article
	)

	newScorer := func(mock *mockChatClient) *scorer.Scorer {
		cfg := scorer.NewDefaultConfig("test-key", scorer.DomainJava).
			WithRetry(3, time.Millisecond)
		s, err := scorer.NewWithClient(mock, cfg)
		Expect(err).ToNot(HaveOccurred())
		return s
	}

	respondWith := func(content string) *mockChatClient {
		return &mockChatClient{respond: func(openai.ChatCompletionRequest) (string, error) {
			return content, nil
		}}
	}

	BeforeEach(func() {
		ctx = context.Background()
		article = scorer.Article{
			ID:      "a-1",
			Title:   "JDK 25 released",
			Summary: "Long-term support release with finalized value types.",
			URL:     "https://example.com/jdk25",
			Source:  "InfoQ",
		}
	})

	Describe("well-formed responses", func() {
		It("accepts a plain JSON object", func() {
			mock = respondWith(`{"score": 9, "reason": "Major JDK release"}`)
			s = newScorer(mock)

			scored, err := s.Score(ctx, article)

			Expect(err).ToNot(HaveOccurred())
			Expect(scored.Score).To(Equal(9))
			Expect(scored.Reason).To(Equal("Major JDK release"))
			Expect(scored.Article).To(Equal(article))
		})

		It("strips markdown code fences before parsing", func() {
			mock = respondWith("```json\n{\"score\": 7, \"reason\": \"Framework update\"}\n```")
			s = newScorer(mock)

			scored, err := s.Score(ctx, article)

			Expect(err).ToNot(HaveOccurred())
			Expect(scored.Score).To(Equal(7))
		})

		It("strips bare code fences", func() {
			mock = respondWith("```\n{\"score\": 5, \"reason\": \"Tooling news\"}\n```")
			s = newScorer(mock)

			scored, err := s.Score(ctx, article)

			Expect(err).ToNot(HaveOccurred())
			Expect(scored.Score).To(Equal(5))
		})
	})

	Describe("score rounding", func() {
		It("rounds 7.6 up to 8", func() {
			mock = respondWith(`{"score": 7.6, "reason": "Strong release"}`)
			s = newScorer(mock)

			scored, err := s.Score(ctx, article)

			Expect(err).ToNot(HaveOccurred())
			Expect(scored.Score).To(Equal(8))
		})

		It("rounds half-up", func() {
			mock = respondWith(`{"score": 6.5, "reason": "Decent"}`)
			s = newScorer(mock)

			scored, err := s.Score(ctx, article)

			Expect(err).ToNot(HaveOccurred())
			Expect(scored.Score).To(Equal(7))
		})

		It("rounds 3.4 down to 3", func() {
			mock = respondWith(`{"score": 3.4, "reason": "Minor"}`)
			s = newScorer(mock)

			scored, err := s.Score(ctx, article)

			Expect(err).ToNot(HaveOccurred())
			Expect(scored.Score).To(Equal(3))
		})
	})

	Describe("invalid responses", func() {
		It("rejects a score of 11", func() {
			mock = respondWith(`{"score": 11, "reason": "Too good"}`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			var vErr *scorer.ValidationError
			Expect(err).To(HaveOccurred())
			Expect(errorsAs(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("score"))
		})

		It("rejects a score of 0", func() {
			mock = respondWith(`{"score": 0, "reason": "Worthless"}`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			var vErr *scorer.ValidationError
			Expect(errorsAs(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("score"))
			Expect(vErr.Error()).To(ContainSubstring("score"))
		})

		It("rejects a missing score", func() {
			mock = respondWith(`{"reason": "No score at all"}`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			var vErr *scorer.ValidationError
			Expect(errorsAs(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("score"))
		})

		It("rejects an empty reason", func() {
			mock = respondWith(`{"score": 8, "reason": ""}`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			var vErr *scorer.ValidationError
			Expect(errorsAs(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("reason"))
		})

		It("rejects prose that is not JSON", func() {
			mock = respondWith(`I would rate this article an 8 out of 10.`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			var vErr *scorer.ValidationError
			Expect(errorsAs(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("response"))
		})

		It("names the mistyped field", func() {
			mock = respondWith(`{"score": "eight", "reason": "High impact"}`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			var vErr *scorer.ValidationError
			Expect(errorsAs(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("score"))
		})

		It("does not retry validation failures", func() {
			mock = respondWith(`{"score": 42, "reason": "Out of range"}`)
			s = newScorer(mock)

			_, err := s.Score(ctx, article)

			Expect(err).To(HaveOccurred())
			Expect(mock.callCount()).To(Equal(1))
		})
	})
})
