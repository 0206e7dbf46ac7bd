// Package ai provides chat-completion clients behind a provider registry.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultProvider is used when Config.Provider is empty.
const DefaultProvider = "openai"

// ErrNotConfigured is returned by New when no API key is set.
var ErrNotConfigured = errors.New("ai: no API key configured")

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Logger   *slog.Logger
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // provider endpoint override, mainly for tests
	Timeout  time.Duration
}

// Factory builds a Client for a provider.
type Factory func(Config) (Client, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a provider factory under one or more names.
func Register(name string, factory Factory, aliases ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, n := range append([]string{name}, aliases...) {
		factories[strings.ToLower(n)] = factory
	}
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New returns a client for cfg.Provider. It returns ErrNotConfigured when
// cfg.APIKey is empty.
func New(cfg Config) (Client, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = DefaultProvider
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mu.RLock()
	factory := factories[name]
	mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("ai: provider %q not registered (known: %s)", name, strings.Join(Providers(), ", "))
	}
	return factory(cfg)
}

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsRateLimit reports whether err is a provider quota or rate-limit error.
func IsRateLimit(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
