// Package webclient provides the shared HTTP plumbing used by fetchers and the relay.
package webclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// UserAgent is the browser User-Agent string sent by all fetchers.
// Profile hosts reject requests from unidentified clients.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

// DefaultTimeout bounds every profile request.
const DefaultTimeout = 10 * time.Second

// MaxBodySize caps how much of a response body is read.
const MaxBodySize = 2 << 20

// HTTPError represents an HTTP error response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Response is a fully read HTTP response.
type Response struct {
	ContentType string
	Body        []byte
	StatusCode  int
}

// IsJSON reports whether the declared content type is JSON.
func (r *Response) IsJSON() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.ContentType)), "application/json")
}

// NewClient returns an HTTP client with the given timeout (DefaultTimeout if zero).
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Do executes req exactly once and reads up to MaxBodySize bytes of the body.
// Non-200 statuses are returned as a Response, not an error; only transport
// and read failures are errors. limiter may be nil.
func Do(ctx context.Context, client *http.Client, req *http.Request, limiter *RateLimiter, logger *slog.Logger) (*Response, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx, req.URL.String()); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // intentional

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if logger != nil {
		logger.DebugContext(ctx, "http response",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"content_type", resp.Header.Get("Content-Type"),
			"bytes", len(body),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
