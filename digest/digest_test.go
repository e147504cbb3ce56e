package digest_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kevpdev/newsletter-automation/digest"
	"github.com/kevpdev/newsletter-automation/scorer"
)

func scoredArticle(id string, score int) scorer.ScoredArticle {
	return scorer.ScoredArticle{
		Article: scorer.Article{
			ID:    id,
			Title: fmt.Sprintf("Article %s", id),
			URL:   fmt.Sprintf("https://example.com/%s", id),
		},
		Score:  score,
		Reason: fmt.Sprintf("reason for %s", id),
	}
}

func scoredPool(scores ...int) []scorer.ScoredArticle {
	pool := make([]scorer.ScoredArticle, len(scores))
	for i, s := range scores {
		pool[i] = scoredArticle(fmt.Sprintf("a%d", i+1), s)
	}
	return pool
}

func scoresOf(articles []scorer.ScoredArticle) []int {
	scores := make([]int, len(articles))
	for i, a := range articles {
		scores[i] = a.Score
	}
	return scores
}

func idsOf(articles []scorer.ScoredArticle) []string {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.Article.ID
	}
	return ids
}

var _ = Describe("Aggregate", func() {
	Context("tier partitioning", func() {
		It("places articles into tiers by score boundaries", func() {
			d := digest.Aggregate(scoredPool(10, 9, 8, 7, 6, 5), digest.DefaultLimits())

			Expect(scoresOf(d.Critical)).To(Equal([]int{10, 9, 8}))
			Expect(scoresOf(d.Important)).To(Equal([]int{7, 6}))
			Expect(scoresOf(d.Bonus)).To(Equal([]int{5}))
		})

		It("treats 8 as critical and 6 as important", func() {
			d := digest.Aggregate(scoredPool(8, 6, 3), digest.DefaultLimits())

			Expect(d.Critical).To(HaveLen(1))
			Expect(d.Important).To(HaveLen(1))
			Expect(d.Bonus).To(HaveLen(1))
		})

		It("drops articles scoring below 3", func() {
			d := digest.Aggregate(scoredPool(9, 2, 1, 2), digest.DefaultLimits())

			Expect(d.Size()).To(Equal(1))
			Expect(d.Critical[0].Score).To(Equal(9))
		})

		It("records the full input pool size in Total", func() {
			d := digest.Aggregate(scoredPool(9, 2, 1, 2), digest.DefaultLimits())

			Expect(d.Total).To(Equal(4))
		})
	})

	Context("ordering", func() {
		It("sorts each tier by score descending", func() {
			d := digest.Aggregate(scoredPool(6, 9, 4, 10, 7, 5), digest.DefaultLimits())

			Expect(scoresOf(d.Critical)).To(Equal([]int{10, 9}))
			Expect(scoresOf(d.Important)).To(Equal([]int{7, 6}))
			Expect(scoresOf(d.Bonus)).To(Equal([]int{5, 4}))
		})

		It("keeps input order for equal scores", func() {
			pool := []scorer.ScoredArticle{
				scoredArticle("first", 7),
				scoredArticle("second", 7),
				scoredArticle("third", 7),
			}

			d := digest.Aggregate(pool, digest.DefaultLimits())

			Expect(idsOf(d.Important)).To(Equal([]string{"first", "second", "third"}))
		})
	})

	Context("size limits", func() {
		It("trims only the bonus tier when the cap is reached", func() {
			pool := scoredPool(10, 10, 9, 9, 8, 8, 7, 7, 6, 6, 5, 5, 4)

			d := digest.Aggregate(pool, digest.Limits{Min: 5, Max: 10})

			Expect(d.Critical).To(HaveLen(6))
			Expect(d.Important).To(HaveLen(4))
			Expect(d.Bonus).To(BeEmpty())
			Expect(d.Size()).To(Equal(10))
		})

		It("takes the best bonus articles when some capacity remains", func() {
			pool := scoredPool(10, 9, 8, 7, 6, 5, 4, 3)

			d := digest.Aggregate(pool, digest.Limits{Min: 5, Max: 7})

			Expect(d.Critical).To(HaveLen(3))
			Expect(d.Important).To(HaveLen(2))
			Expect(scoresOf(d.Bonus)).To(Equal([]int{5, 4}))
		})

		It("never trims critical or important articles, even past the cap", func() {
			pool := scoredPool(10, 10, 9, 9, 8, 8, 8, 7, 7, 6, 6, 6)

			d := digest.Aggregate(pool, digest.Limits{Min: 5, Max: 10})

			Expect(d.Critical).To(HaveLen(7))
			Expect(d.Important).To(HaveLen(5))
			Expect(d.Size()).To(Equal(12))
		})

		It("does not pad below the minimum when the pool is small", func() {
			d := digest.Aggregate(scoredPool(9, 4), digest.Limits{Min: 5, Max: 10})

			Expect(d.Size()).To(Equal(2))
		})

		It("falls back to default limits when Max is unset", func() {
			pool := scoredPool(10, 9, 8, 7, 6, 5, 5, 5, 5, 5, 5, 5)

			d := digest.Aggregate(pool, digest.Limits{})

			Expect(d.Size()).To(Equal(10))
			Expect(d.Bonus).To(HaveLen(5))
		})
	})

	Context("empty input", func() {
		It("returns an empty digest for an empty pool", func() {
			d := digest.Aggregate(nil, digest.DefaultLimits())

			Expect(d.Empty()).To(BeTrue())
			Expect(d.Total).To(BeZero())
		})

		It("returns an empty digest when every article falls below 3", func() {
			d := digest.Aggregate(scoredPool(2, 1, 2), digest.DefaultLimits())

			Expect(d.Empty()).To(BeTrue())
			Expect(d.Total).To(Equal(3))
		})
	})
})
