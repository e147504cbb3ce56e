// Package config loads the newsletter pipeline configuration from a YAML
// file, with secrets supplied through environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kevpdev/newsletter-automation/digest"
	"github.com/kevpdev/newsletter-automation/resilience"
	"github.com/kevpdev/newsletter-automation/scorer"
)

// Defaults applied when the file leaves fields unset.
const (
	defaultModel       = "meta-llama/llama-3.3-70b-instruct:free"
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultMaxRetries  = 3
	defaultRetryDelay  = 1000
	defaultConcurrency = 5
	defaultMinArticles = 5
	defaultMaxArticles = 10
)

// Config is the full pipeline configuration.
type Config struct {
	Domains  []DomainEntry  `yaml:"domains"`
	FreshRSS FreshRSSConfig `yaml:"freshrss"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Digest   DigestConfig   `yaml:"digest"`
	Gmail    GmailConfig    `yaml:"gmail"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DomainEntry describes one newsletter domain: where its articles come from
// and how its digest is presented.
type DomainEntry struct {
	Key         string `yaml:"key"`          // Domain key, must match a scoring prompt
	Label       string `yaml:"label"`        // Display name used in the digest header
	Color       string `yaml:"color"`        // Accent color as #RRGGBB
	OutputLabel string `yaml:"output_label"` // Mailbox label for the sent digest
	StreamID    string `yaml:"stream_id"`    // FreshRSS stream to fetch
}

// FreshRSSConfig locates the feed aggregator. The token comes from the
// FRESHRSS_TOKEN environment variable.
type FreshRSSConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"-"`
}

// ScoringConfig tunes the LLM scoring calls. The API key comes from the
// OPENROUTER_API_KEY environment variable.
type ScoringConfig struct {
	APIKey        string `yaml:"-"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	MaxRetries    int    `yaml:"max_retries"`
	RetryDelayMS  int    `yaml:"retry_delay_ms"`
}

// DigestConfig bounds the digest size.
type DigestConfig struct {
	MinArticles int `yaml:"min_articles"`
	MaxArticles int `yaml:"max_articles"`
}

// GmailConfig holds delivery settings. All credentials come from the
// GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN environment
// variables; the recipient from USER_EMAIL.
type GmailConfig struct {
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RefreshToken string `yaml:"-"`
	UserEmail    string `yaml:"-"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads the configuration file at path, overlays environment secrets
// and fills defaults. It does not validate domain completeness; call
// Validate before running the pipeline.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FRESHRSS_BASE_URL"); v != "" {
		c.FreshRSS.BaseURL = v
	}
	c.FreshRSS.Token = os.Getenv("FRESHRSS_TOKEN")
	c.Scoring.APIKey = os.Getenv("OPENROUTER_API_KEY")
	c.Gmail.ClientID = os.Getenv("GMAIL_CLIENT_ID")
	c.Gmail.ClientSecret = os.Getenv("GMAIL_CLIENT_SECRET")
	c.Gmail.RefreshToken = os.Getenv("GMAIL_REFRESH_TOKEN")
	c.Gmail.UserEmail = os.Getenv("USER_EMAIL")
}

func (c *Config) applyDefaults() {
	if c.Scoring.BaseURL == "" {
		c.Scoring.BaseURL = defaultBaseURL
	}
	if c.Scoring.Model == "" {
		c.Scoring.Model = defaultModel
	}
	if c.Scoring.MaxConcurrent <= 0 {
		c.Scoring.MaxConcurrent = defaultConcurrency
	}
	if c.Scoring.MaxRetries <= 0 {
		c.Scoring.MaxRetries = defaultMaxRetries
	}
	if c.Scoring.RetryDelayMS <= 0 {
		c.Scoring.RetryDelayMS = defaultRetryDelay
	}
	if c.Digest.MinArticles <= 0 {
		c.Digest.MinArticles = defaultMinArticles
	}
	if c.Digest.MaxArticles <= 0 {
		c.Digest.MaxArticles = defaultMaxArticles
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Validate checks that everything the pipeline needs for the given domain
// is present.
func (c *Config) Validate(domainKey string) error {
	entry, err := c.Domain(domainKey)
	if err != nil {
		return err
	}
	if entry.StreamID == "" {
		return fmt.Errorf("domain %q: stream_id is required", domainKey)
	}
	if c.FreshRSS.BaseURL == "" {
		return fmt.Errorf("freshrss base_url is required")
	}
	if c.FreshRSS.Token == "" {
		return fmt.Errorf("FRESHRSS_TOKEN is not set")
	}
	if c.Scoring.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is not set")
	}
	if c.Gmail.ClientID == "" || c.Gmail.ClientSecret == "" {
		return fmt.Errorf("GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET are not set")
	}
	if c.Gmail.RefreshToken == "" {
		return fmt.Errorf("GMAIL_REFRESH_TOKEN is not set")
	}
	if c.Gmail.UserEmail == "" {
		return fmt.Errorf("USER_EMAIL is not set")
	}
	return nil
}

// Domain returns the configuration entry for the given domain key.
func (c *Config) Domain(key string) (DomainEntry, error) {
	for _, entry := range c.Domains {
		if entry.Key == key {
			return entry, nil
		}
	}
	return DomainEntry{}, fmt.Errorf("domain %q not found in config", key)
}

// ScorerConfig builds the scorer configuration for the given domain.
func (c *Config) ScorerConfig(domainKey string) scorer.Config {
	retry := resilience.ChatConfig()
	retry.MaxAttempts = c.Scoring.MaxRetries
	retry.BaseDelay = time.Duration(c.Scoring.RetryDelayMS) * time.Millisecond

	return scorer.Config{
		APIKey:        c.Scoring.APIKey,
		BaseURL:       c.Scoring.BaseURL,
		Model:         c.Scoring.Model,
		Domain:        scorer.Domain(domainKey),
		MaxConcurrent: c.Scoring.MaxConcurrent,
		Retry:         retry,
	}
}

// DigestLimits builds the digest size limits.
func (c *Config) DigestLimits() digest.Limits {
	return digest.Limits{Min: c.Digest.MinArticles, Max: c.Digest.MaxArticles}
}
