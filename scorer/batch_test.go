package scorer_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/kevpdev/newsletter-automation/scorer"
)

var _ = Describe("ScoreAll", func() {
	var (
		ctx  context.Context
		mock *mockChatClient
		s    *scorer.Scorer
	)

	// scoreByTitle replies with a score embedded in the article title, so
	// concurrent results can be traced back to their inputs.
	scoreByTitle := func(req openai.ChatCompletionRequest) (string, error) {
		prompt := req.Messages[0].Content
		for score := 1; score <= 10; score++ {
			if strings.Contains(prompt, fmt.Sprintf("Title: article scoring %d", score)) {
				return fmt.Sprintf(`{"score": %d, "reason": "relevance %d"}`, score, score), nil
			}
		}
		return "", errors.New("unexpected prompt")
	}

	makeArticles := func(scores ...int) []scorer.Article {
		articles := make([]scorer.Article, len(scores))
		for i, score := range scores {
			articles[i] = scorer.Article{
				ID:    fmt.Sprintf("a-%d", i),
				Title: fmt.Sprintf("article scoring %d", score),
			}
		}
		return articles
	}

	BeforeEach(func() {
		ctx = context.Background()
		mock = &mockChatClient{respond: scoreByTitle}

		cfg := scorer.NewDefaultConfig("test-key", scorer.DomainJava).
			WithRetry(1, time.Millisecond).
			WithMaxConcurrent(4)
		var err error
		s, err = scorer.NewWithClient(mock, cfg)
		Expect(err).ToNot(HaveOccurred())
	})

	It("returns an empty result for empty input without any calls", func() {
		scored := s.ScoreAll(ctx, nil)

		Expect(scored).To(BeEmpty())
		Expect(mock.callCount()).To(Equal(0))
	})

	It("scores every article in the batch", func() {
		scored := s.ScoreAll(ctx, makeArticles(9, 7, 4, 2))

		Expect(scored).To(HaveLen(4))
		Expect(mock.callCount()).To(Equal(4))

		got := map[string]int{}
		for _, sa := range scored {
			got[sa.Article.ID] = sa.Score
		}
		Expect(got).To(Equal(map[string]int{"a-0": 9, "a-1": 7, "a-2": 4, "a-3": 2}))
	})

	It("isolates individual failures from the rest of the batch", func() {
		mock.respond = func(req openai.ChatCompletionRequest) (string, error) {
			if strings.Contains(req.Messages[0].Content, "Title: article scoring 7") {
				return "", &openai.APIError{
					Code:           "internal_server_error",
					Message:        "Internal server error",
					HTTPStatusCode: 500,
				}
			}
			return scoreByTitle(req)
		}

		scored := s.ScoreAll(ctx, makeArticles(9, 7, 4))

		Expect(scored).To(HaveLen(2))
		for _, sa := range scored {
			Expect(sa.Article.ID).ToNot(Equal("a-1"))
		}
	})

	It("excludes articles with invalid responses without aborting", func() {
		mock.respond = func(req openai.ChatCompletionRequest) (string, error) {
			if strings.Contains(req.Messages[0].Content, "Title: article scoring 4") {
				return `{"score": 99, "reason": "broken"}`, nil
			}
			return scoreByTitle(req)
		}

		scored := s.ScoreAll(ctx, makeArticles(9, 4, 6))

		Expect(scored).To(HaveLen(2))
	})

	It("returns an empty result when every article fails", func() {
		mock.respond = func(openai.ChatCompletionRequest) (string, error) {
			return "", errors.New("connection refused")
		}

		scored := s.ScoreAll(ctx, makeArticles(9, 7))

		Expect(scored).To(BeEmpty())
	})
})
