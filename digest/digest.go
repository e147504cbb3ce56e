// Package digest turns an unordered pool of scored articles into a bounded,
// three-tier selection and renders it for delivery.
package digest

import (
	"sort"

	"github.com/kevpdev/newsletter-automation/scorer"
)

// Tier score boundaries. Articles below the bonus floor never appear.
const (
	criticalFloor  = 8
	importantFloor = 6
	bonusFloor     = 3
)

// Limits bounds the digest size. Critical and important tiers are never
// trimmed to satisfy Max; only the bonus tier flexes.
type Limits struct {
	Min int // Back-fill bonus articles up to this total when available
	Max int // Hard cap on critical + important + bonus
}

// DefaultLimits returns the standard digest size: 5 to 10 articles.
func DefaultLimits() Limits {
	return Limits{Min: 5, Max: 10}
}

// Digest groups scored articles into three priority tiers.
type Digest struct {
	Critical  []scorer.ScoredArticle // score >= 8, must-read
	Important []scorer.ScoredArticle // 6 <= score < 8, relevant but not urgent
	Bonus     []scorer.ScoredArticle // 3 <= score < 6, nice to have
	Total     int                    // Size of the input pool before tiering
}

// Size returns the number of articles selected across all tiers.
func (d Digest) Size() int {
	return len(d.Critical) + len(d.Important) + len(d.Bonus)
}

// Empty reports whether no articles qualified for any tier.
func (d Digest) Empty() bool {
	return d.Size() == 0
}

// Aggregate partitions scored articles into tiers and enforces the digest
// size limits. It is a pure single-pass transform: no I/O, no randomness.
//
// All critical and important articles are kept. Remaining capacity up to
// Limits.Max is filled with the best bonus articles; when the higher tiers
// alone reach the cap, the bonus tier stays empty. Articles scoring below 3
// are dropped entirely, even when the result ends up smaller than Limits.Min.
// Each tier is sorted by score descending, ties keeping input order.
func Aggregate(scored []scorer.ScoredArticle, limits Limits) Digest {
	if limits.Max <= 0 {
		limits = DefaultLimits()
	}

	var critical, important, bonus []scorer.ScoredArticle
	for _, article := range scored {
		switch {
		case article.Score >= criticalFloor:
			critical = append(critical, article)
		case article.Score >= importantFloor:
			important = append(important, article)
		case article.Score >= bonusFloor:
			bonus = append(bonus, article)
		}
	}

	sortByScore(critical)
	sortByScore(important)
	sortByScore(bonus)

	slots := len(critical) + len(important)
	take := limits.Max - slots
	if take < 0 {
		take = 0
	}
	if take > len(bonus) {
		take = len(bonus)
	}
	bonus = bonus[:take]

	return Digest{
		Critical:  critical,
		Important: important,
		Bonus:     bonus,
		Total:     len(scored),
	}
}

// sortByScore orders articles by score descending. The sort is stable so
// equal scores keep their input order.
func sortByScore(articles []scorer.ScoredArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Score > articles[j].Score
	})
}
