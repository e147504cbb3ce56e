// Command newsletter builds and sends one domain's weekly digest: it fetches
// recent articles from FreshRSS, scores them with an LLM, selects the top
// tiers and mails the rendered digest through Gmail.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kevpdev/newsletter-automation/config"
	"github.com/kevpdev/newsletter-automation/digest"
	"github.com/kevpdev/newsletter-automation/feed"
	"github.com/kevpdev/newsletter-automation/mailer"
	"github.com/kevpdev/newsletter-automation/scorer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("newsletter run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development keeps secrets in .env; in CI they come from the
	// environment directly, so a missing file is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	domainKey := flag.String("domain", "", "domain to build the digest for")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if *domainKey == "" {
		return errors.New("-domain is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(*domainKey); err != nil {
		return err
	}
	domain, err := cfg.Domain(*domainKey)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	slog.Info("building digest", "domain", domain.Key, "stream", domain.StreamID)

	source, err := feed.NewFreshRSSClient(cfg.FreshRSS.BaseURL, cfg.FreshRSS.Token)
	if err != nil {
		return err
	}
	articles, err := source.Fetch(ctx, domain.StreamID, feed.Options{})
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		slog.Warn("no articles in the fetch window, nothing to send", "domain", domain.Key)
		return nil
	}

	llmScorer, err := scorer.New(cfg.ScorerConfig(domain.Key))
	if err != nil {
		return err
	}
	scored := llmScorer.ScoreAll(ctx, articles)
	if len(scored) == 0 {
		slog.Warn("no articles scored successfully, nothing to send", "domain", domain.Key)
		return nil
	}

	d := digest.Aggregate(scored, cfg.DigestLimits())
	slog.Info("digest assembled",
		"domain", domain.Key,
		"critical", len(d.Critical),
		"important", len(d.Important),
		"bonus", len(d.Bonus),
		"selected", d.Size(),
		"scored", d.Total,
	)

	html, err := digest.Render(d, digest.DomainConfig{
		Label:       domain.Label,
		Color:       domain.Color,
		OutputLabel: domain.OutputLabel,
	})
	if err != nil {
		return err
	}

	sender, err := mailer.NewGmailSender(mailer.GmailCredentials{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RefreshToken: cfg.Gmail.RefreshToken,
	})
	if err != nil {
		return err
	}

	week, year := currentWeek(time.Now())
	email := mailer.Email{
		To:       cfg.Gmail.UserEmail,
		Subject:  fmt.Sprintf("[%s] Tech Digest - Week %d, %d", domain.Label, week, year),
		HTMLBody: html,
		Label:    domain.OutputLabel,
	}
	if err := sender.Send(ctx, email); err != nil {
		return err
	}

	slog.Info("digest delivered", "domain", domain.Key, "to", email.To, "articles", d.Size())
	return nil
}

// currentWeek numbers weeks from the start of the year in plain 7-day
// blocks, matching the digest subject convention rather than ISO weeks.
func currentWeek(now time.Time) (week, year int) {
	week = (now.YearDay()-1)/7 + 1
	return week, now.Year()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", scorer.GetMetricsHandler())

	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics endpoint failed", "error", err)
	}
}
