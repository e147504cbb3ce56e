// Package scorer rates news articles for relevance using an LLM chat
// endpoint, producing a 1-10 score and a one-line reason per article.
//
// Each Scorer is bound to a single domain (Java, DevOps, Security, ...) whose
// prompt template defines the scoring criteria. Batches are scored
// concurrently with per-article failure isolation: one bad response or dead
// connection costs that article, not the run.
//
// Features:
//   - Domain-keyed prompt templates with per-article substitution
//   - Strict response validation (score range, non-empty reason)
//   - Resilient chat calls with bounded retry and 429 backoff
//   - Optional circuit breaker around the chat client
//   - Prometheus metrics integration
//
// Basic usage:
//
//	cfg := scorer.NewDefaultConfig(os.Getenv("OPENROUTER_API_KEY"), scorer.DomainJava)
//	s, err := scorer.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	scored := s.ScoreAll(ctx, articles)
package scorer
