package webclient

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// DefaultMinDelay is the spacing used by the daemon between requests to one host.
const DefaultMinDelay = 600 * time.Millisecond

// RateLimiter enforces a minimum delay between requests to the same domain.
// It is safe for concurrent use from multiple goroutines.
// A zero delay disables waiting.
type RateLimiter struct {
	logger      *slog.Logger
	lastRequest sync.Map // map[string]time.Time
	mu          sync.Map // map[string]*sync.Mutex - per-domain locks
	minDelay    time.Duration
}

// NewRateLimiter creates a rate limiter that enforces minDelay between
// requests to the same domain.
func NewRateLimiter(minDelay time.Duration, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{minDelay: minDelay, logger: logger}
}

// Wait blocks until it's safe to make a request to the given URL's domain,
// or until ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	if r == nil || r.minDelay <= 0 {
		return nil
	}
	domain := extractDomain(rawURL)
	if domain == "" {
		return nil
	}

	muI, _ := r.mu.LoadOrStore(domain, &sync.Mutex{})
	mu, ok := muI.(*sync.Mutex)
	if !ok {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if lastI, ok := r.lastRequest.Load(domain); ok {
		if last, ok := lastI.(time.Time); ok {
			if elapsed := time.Since(last); elapsed < r.minDelay {
				wait := r.minDelay - elapsed
				r.logger.Debug("rate limit pause", "domain", domain, "wait", wait.Round(time.Millisecond))
				t := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
	}

	r.lastRequest.Store(domain, time.Now())
	return nil
}

// extractDomain returns the host portion of a URL, or empty string on error.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
