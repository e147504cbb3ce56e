package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/kevpdev/newsletter-automation/resilience"
	"github.com/kevpdev/newsletter-automation/scorer"
)

// RSSSource fetches articles directly from a public RSS or Atom feed,
// for streams that are not aggregated behind FreshRSS.
type RSSSource struct {
	parser *gofeed.Parser
	retry  resilience.Config
}

// NewRSSSource creates a direct RSS feed source.
func NewRSSSource() *RSSSource {
	return &RSSSource{
		parser: gofeed.NewParser(),
		retry:  resilience.FeedFetchConfig(),
	}
}

// Fetch downloads and parses the feed at feedURL. The streamID is the feed
// URL itself for this source.
func (s *RSSSource) Fetch(ctx context.Context, feedURL string, opts Options) ([]scorer.Article, error) {
	opts = opts.withDefaults()

	parsed, err := resilience.Do(ctx, "rss fetch", s.retry,
		func(ctx context.Context) (*gofeed.Feed, error) {
			return s.parser.ParseURLWithContext(feedURL, ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("fetching feed %q: %w", feedURL, err)
	}

	cutoff := time.Now().AddDate(0, 0, -opts.DaysBack)
	articles := make([]scorer.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(articles) >= opts.Count {
			break
		}
		published := itemTime(item)
		if published.Before(cutoff) {
			continue
		}
		articles = append(articles, normalizeRSSItem(parsed, item, published))
	}

	slog.Info("fetched rss feed",
		"feed", feedURL,
		"items", len(parsed.Items),
		"within_window", len(articles),
	)
	return articles, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func normalizeRSSItem(parsed *gofeed.Feed, item *gofeed.Item, published time.Time) scorer.Article {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return scorer.Article{
		ID:          id,
		Title:       title,
		Summary:     summary,
		URL:         item.Link,
		PublishedAt: published,
		Source:      parsed.Title,
	}
}
