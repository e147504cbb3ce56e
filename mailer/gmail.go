package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kevpdev/newsletter-automation/resilience"
)

const (
	defaultAPIBaseURL = "https://gmail.googleapis.com"
	defaultTokenURL   = "https://oauth2.googleapis.com/token"

	// Refresh the access token this long before it actually expires.
	tokenExpiryMargin = time.Minute
)

// GmailCredentials holds the OAuth application and user credentials needed
// to send mail on the user's behalf.
type GmailCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailSender sends digests through the Gmail REST API, minting short-lived
// access tokens from a long-lived refresh token.
type GmailSender struct {
	creds      GmailCredentials
	baseURL    string
	tokenURL   string
	httpClient *http.Client
	retry      resilience.Config

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// GmailOption configures a GmailSender.
type GmailOption func(*GmailSender)

// WithEndpoints overrides the API and token endpoints, mainly for tests.
func WithEndpoints(apiBaseURL, tokenURL string) GmailOption {
	return func(s *GmailSender) {
		s.baseURL = strings.TrimRight(apiBaseURL, "/")
		s.tokenURL = tokenURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) GmailOption {
	return func(s *GmailSender) {
		s.httpClient = client
	}
}

// WithRetryConfig overrides the retry policy used for API calls.
func WithRetryConfig(cfg resilience.Config) GmailOption {
	return func(s *GmailSender) {
		s.retry = cfg
	}
}

// NewGmailSender creates a sender for the account the refresh token grants
// access to.
func NewGmailSender(creds GmailCredentials, opts ...GmailOption) (*GmailSender, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("gmail client credentials are required")
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("gmail refresh token is required")
	}

	sender := &GmailSender{
		creds:      creds,
		baseURL:    defaultAPIBaseURL,
		tokenURL:   defaultTokenURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      resilience.MailConfig(),
	}
	for _, opt := range opts {
		opt(sender)
	}
	return sender, nil
}

// Send delivers the email and, when a label is set, moves the sent copy out
// of the inbox under that label. The label must already exist in the
// account; a missing label fails the run so the misconfiguration is noticed,
// even though the digest itself has reached the mailbox by then.
func (s *GmailSender) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return fmt.Errorf("recipient address is required")
	}

	messageID, err := resilience.Do(ctx, "gmail send", s.retry,
		func(ctx context.Context) (string, error) {
			return s.sendMessage(ctx, email)
		})
	if err != nil {
		return fmt.Errorf("sending digest to %s: %w", email.To, err)
	}

	slog.Info("digest sent", "to", email.To, "subject", email.Subject, "message_id", messageID)

	if email.Label == "" {
		return nil
	}
	if err := s.applyLabel(ctx, messageID, email.Label); err != nil {
		return fmt.Errorf("labeling sent digest: %w", err)
	}
	slog.Info("digest labeled", "label", email.Label, "message_id", messageID)
	return nil
}

// sendMessage submits one RFC 2822 message and returns the Gmail message ID.
func (s *GmailSender) sendMessage(ctx context.Context, email Email) (string, error) {
	token, err := s.accessTokenFor(ctx)
	if err != nil {
		return "", err
	}

	raw := base64.RawURLEncoding.EncodeToString([]byte(buildMIMEMessage(email)))
	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return "", fmt.Errorf("encoding message payload: %w", err)
	}

	var sent struct {
		ID string `json:"id"`
	}
	endpoint := s.baseURL + "/gmail/v1/users/me/messages/send"
	if err := s.doJSON(ctx, http.MethodPost, endpoint, token, strings.NewReader(string(payload)), &sent); err != nil {
		return "", err
	}
	return sent.ID, nil
}

// applyLabel attaches the named label to the sent message and removes it
// from the inbox. The label must already exist in the account.
func (s *GmailSender) applyLabel(ctx context.Context, messageID, label string) error {
	labelID, err := resilience.Do(ctx, "gmail label lookup", s.retry,
		func(ctx context.Context) (string, error) {
			return s.lookupLabelID(ctx, label)
		})
	if err != nil {
		return err
	}

	_, err = resilience.Do(ctx, "gmail label apply", s.retry,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.modifyLabels(ctx, messageID, labelID)
		})
	return err
}

func (s *GmailSender) lookupLabelID(ctx context.Context, label string) (string, error) {
	token, err := s.accessTokenFor(ctx)
	if err != nil {
		return "", err
	}

	var listing struct {
		Labels []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"labels"`
	}
	endpoint := s.baseURL + "/gmail/v1/users/me/labels"
	if err := s.doJSON(ctx, http.MethodGet, endpoint, token, nil, &listing); err != nil {
		return "", err
	}

	for _, l := range listing.Labels {
		if l.Name == label {
			return l.ID, nil
		}
	}
	return "", fmt.Errorf("label %q not found, create it in the mailbox first", label)
}

func (s *GmailSender) modifyLabels(ctx context.Context, messageID, labelID string) error {
	token, err := s.accessTokenFor(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string][]string{
		"addLabelIds":    {labelID},
		"removeLabelIds": {"INBOX"},
	})
	if err != nil {
		return fmt.Errorf("encoding modify payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s/modify", s.baseURL, messageID)
	return s.doJSON(ctx, http.MethodPost, endpoint, token, strings.NewReader(string(payload)), nil)
}

// accessTokenFor returns a cached access token, exchanging the refresh token
// for a new one when the cache is empty or near expiry.
func (s *GmailSender) accessTokenFor(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-tokenExpiryMargin)) {
		return s.accessToken, nil
	}

	form := url.Values{
		"client_id":     {s.creds.ClientID},
		"client_secret": {s.creds.ClientSecret},
		"refresh_token": {s.creds.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &resilience.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return s.accessToken, nil
}

// doJSON performs an authenticated API request, decoding a JSON response
// into out when out is non-nil.
func (s *GmailSender) doJSON(ctx context.Context, method, endpoint, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling gmail API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &resilience.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding gmail response: %w", err)
	}
	return nil
}

// buildMIMEMessage assembles a single-part HTML message. The subject is
// Q-encoded so non-ASCII week labels survive transport.
func buildMIMEMessage(email Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTMLBody)
	return b.String()
}
