// Package feed retrieves articles from external feed sources and normalizes
// them into the shape the scoring pipeline consumes.
package feed

import (
	"context"

	"github.com/kevpdev/newsletter-automation/scorer"
)

const (
	defaultCount    = 50
	defaultDaysBack = 7
)

// Options controls how many articles a fetch requests and how far back
// the publication cutoff reaches.
type Options struct {
	Count    int // Maximum articles to request, default 50
	DaysBack int // Drop articles older than this many days, default 7
}

// withDefaults fills zero fields with the standard fetch window.
func (o Options) withDefaults() Options {
	if o.Count <= 0 {
		o.Count = defaultCount
	}
	if o.DaysBack <= 0 {
		o.DaysBack = defaultDaysBack
	}
	return o
}

// Source fetches recent articles from a single feed stream.
type Source interface {
	Fetch(ctx context.Context, streamID string, opts Options) ([]scorer.Article, error)
}
