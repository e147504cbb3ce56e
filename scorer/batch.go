package scorer

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// defaultMaxConcurrent bounds concurrent chat calls when the config does not
// say otherwise.
const defaultMaxConcurrent = 5

// ScoreAll scores every article concurrently and returns the successes.
// Individual failures are logged and counted but never abort the batch, and
// one article's failure cannot prevent the others from completing. Empty
// input returns nil without issuing any network calls.
//
// No ordering is guaranteed between results; the aggregation step re-sorts
// by score.
func (s *Scorer) ScoreAll(ctx context.Context, articles []Article) []ScoredArticle {
	if len(articles) == 0 {
		return nil
	}

	slog.Info("scoring articles",
		"count", len(articles),
		"domain", s.domain,
		"max_concurrent", s.maxConc)
	s.metrics.RecordBatchSize(len(articles))

	// One slot per article so workers never share state.
	results := make([]*ScoredArticle, len(articles))

	var g errgroup.Group
	g.SetLimit(s.maxConc)

	for i, article := range articles {
		i, article := i, article
		g.Go(func() error {
			scored, err := s.Score(ctx, article)
			if err != nil {
				slog.Error("article scoring failed",
					"article_id", article.ID,
					"title", truncate(article.Title, 50),
					"error", err)
				return nil
			}
			results[i] = &scored
			return nil
		})
	}

	// Workers always return nil, so Wait only synchronizes.
	_ = g.Wait()

	scored := make([]ScoredArticle, 0, len(articles))
	for _, r := range results {
		if r != nil {
			scored = append(scored, *r)
		}
	}

	failed := len(articles) - len(scored)
	slog.Info("scoring complete",
		"scored", len(scored),
		"failed", failed)
	s.metrics.RecordArticlesScored(len(scored))
	if failed > 0 {
		s.metrics.RecordArticlesFailed(failed)
	}

	return scored
}
