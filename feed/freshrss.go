package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevpdev/newsletter-automation/resilience"
	"github.com/kevpdev/newsletter-automation/scorer"
)

// FreshRSSClient fetches stream contents from a FreshRSS instance through
// its Google Reader compatible API.
type FreshRSSClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	retry      resilience.Config
}

// FreshRSSOption configures a FreshRSSClient.
type FreshRSSOption func(*FreshRSSClient)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) FreshRSSOption {
	return func(c *FreshRSSClient) {
		c.httpClient = client
	}
}

// WithRetryConfig overrides the retry policy used for fetch calls.
func WithRetryConfig(cfg resilience.Config) FreshRSSOption {
	return func(c *FreshRSSClient) {
		c.retry = cfg
	}
}

// NewFreshRSSClient creates a client for the FreshRSS instance at baseURL,
// authenticating every request with the given API token.
func NewFreshRSSClient(baseURL, authToken string, opts ...FreshRSSOption) (*FreshRSSClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("freshrss base URL is required")
	}
	if authToken == "" {
		return nil, fmt.Errorf("freshrss auth token is required")
	}

	client := &FreshRSSClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry:      resilience.FeedFetchConfig(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// streamContents mirrors the subset of the Google Reader stream/contents
// response the pipeline needs.
type streamContents struct {
	Items []streamItem `json:"items"`
}

type streamItem struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Published int64      `json:"published"`
	Summary   itemBody   `json:"summary"`
	Canonical []itemLink `json:"canonical"`
	Alternate []itemLink `json:"alternate"`
	Origin    itemOrigin `json:"origin"`
}

type itemBody struct {
	Content string `json:"content"`
}

type itemLink struct {
	Href string `json:"href"`
}

type itemOrigin struct {
	Title   string `json:"title"`
	HTMLURL string `json:"htmlUrl"`
}

// Fetch retrieves up to opts.Count articles from the given stream, dropping
// anything published before the opts.DaysBack cutoff.
func (c *FreshRSSClient) Fetch(ctx context.Context, streamID string, opts Options) ([]scorer.Article, error) {
	opts = opts.withDefaults()

	endpoint := fmt.Sprintf("%s/api/greader.php/reader/api/0/stream/contents/%s?n=%d",
		c.baseURL, url.PathEscape(streamID), opts.Count)

	contents, err := resilience.Do(ctx, "freshrss fetch", c.retry,
		func(ctx context.Context) (streamContents, error) {
			return c.fetchStream(ctx, endpoint)
		})
	if err != nil {
		return nil, fmt.Errorf("fetching stream %q: %w", streamID, err)
	}

	cutoff := time.Now().AddDate(0, 0, -opts.DaysBack)
	articles := make([]scorer.Article, 0, len(contents.Items))
	for _, item := range contents.Items {
		published := time.Unix(item.Published, 0)
		if published.Before(cutoff) {
			continue
		}
		articles = append(articles, normalizeItem(item, published))
	}

	slog.Info("fetched feed stream",
		"stream", streamID,
		"items", len(contents.Items),
		"within_window", len(articles),
	)
	return articles, nil
}

func (c *FreshRSSClient) fetchStream(ctx context.Context, endpoint string) (streamContents, error) {
	var contents streamContents

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return contents, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "GoogleLogin auth="+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contents, fmt.Errorf("requesting stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return contents, &resilience.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return contents, fmt.Errorf("decoding stream response: %w", err)
	}
	return contents, nil
}

// normalizeItem converts a reader API item into a pipeline article, filling
// the fields scoring depends on with stable fallbacks.
func normalizeItem(item streamItem, published time.Time) scorer.Article {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	link := ""
	switch {
	case len(item.Canonical) > 0 && item.Canonical[0].Href != "":
		link = item.Canonical[0].Href
	case len(item.Alternate) > 0 && item.Alternate[0].Href != "":
		link = item.Alternate[0].Href
	default:
		link = "#article-" + item.ID
	}

	source := item.Origin.Title
	if source == "" {
		if u, err := url.Parse(item.Origin.HTMLURL); err == nil {
			source = u.Hostname()
		}
	}

	return scorer.Article{
		ID:          item.ID,
		Title:       title,
		Summary:     item.Summary.Content,
		URL:         link,
		PublishedAt: published,
		Source:      source,
	}
}
