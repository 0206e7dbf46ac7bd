// Package relay posts notification messages to an outbound chat webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/codeGROOVE-dev/artcheck/pkg/webclient"
)

// MaxContentRunes is the longest message a webhook accepts.
const MaxContentRunes = 2000

// ErrNoURL is returned by Post when no webhook URL is configured.
var ErrNoURL = errors.New("relay: no webhook URL configured")

// StatusError is a non-2xx webhook response. Only the webhook's origin is
// kept: webhook paths embed their token.
type StatusError struct {
	Origin     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay: webhook at %s answered HTTP %d", e.Origin, e.StatusCode)
}

// Client posts messages to a webhook.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	url        string
	origin     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a relay for webhookURL. An empty URL yields a client whose Post
// always returns ErrNoURL.
func New(webhookURL string, opts ...Option) *Client {
	c := &Client{url: webhookURL, origin: origin(webhookURL), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = webclient.NewClient(webclient.DefaultTimeout)
	}
	return c
}

// Post sends content as {"content": ...}, truncated to MaxContentRunes.
// It makes a single attempt.
func (c *Client) Post(ctx context.Context, content string) error {
	if c.url == "" {
		return ErrNoURL
	}

	payload, err := json.Marshal(struct {
		Content string `json:"content"`
	}{Content: Truncate(content, MaxContentRunes)})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("relay: create request for %s: %w", c.origin, withoutURL(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webclient.UserAgent)

	// No logger: webclient logs the full URL.
	resp, err := webclient.Do(ctx, c.httpClient, req, nil, nil)
	if err != nil {
		return fmt.Errorf("relay: post to %s: %w", c.origin, withoutURL(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Origin: c.origin, StatusCode: resp.StatusCode}
	}

	c.logger.DebugContext(ctx, "relayed message", "webhook", c.origin, "status", resp.StatusCode, "bytes", len(payload))
	return nil
}

// origin returns scheme://host of raw, which is safe to log.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid webhook URL"
	}
	return u.Scheme + "://" + u.Host
}

// withoutURL drops the *url.Error wrapper, whose message quotes the full URL.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
