package webclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("User-Agent = %q, want %q", got, UserAgent)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"login required"}`)) //nolint:errcheck // test
	}))
	defer server.Close()

	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := Do(ctx, NewClient(0), req, nil, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", resp.StatusCode)
	}
	if !resp.IsJSON() {
		t.Errorf("IsJSON() = false for %q", resp.ContentType)
	}
	if !strings.Contains(string(resp.Body), "login required") {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestDoTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Do(ctx, NewClient(time.Second), req, nil, nil); err == nil {
		t.Error("Do() against closed server should fail")
	}
}

func TestIsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"text/html; charset=utf-8", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			r := &Response{ContentType: tt.contentType}
			if got := r.IsJSON(); got != tt.want {
				t.Errorf("IsJSON(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestHTTPError(t *testing.T) {
	var err error = &HTTPError{URL: "https://example.com", StatusCode: 404}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("errors.As failed for %v", err)
	}
	if got := err.Error(); got != "HTTP 404 fetching https://example.com" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	var nilLimiter *RateLimiter
	if err := nilLimiter.Wait(context.Background(), "https://example.com"); err != nil {
		t.Errorf("nil limiter Wait() = %v", err)
	}
	r := NewRateLimiter(0, nil)
	start := time.Now()
	for range 5 {
		if err := r.Wait(context.Background(), "https://example.com"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter waited %v", elapsed)
	}
}

func TestRateLimiterSpacing(t *testing.T) {
	r := NewRateLimiter(50*time.Millisecond, nil)
	ctx := context.Background()
	start := time.Now()
	for range 3 {
		if err := r.Wait(ctx, "https://example.com/a"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three requests took %v, want >= 100ms", elapsed)
	}
}

func TestRateLimiterContext(t *testing.T) {
	r := NewRateLimiter(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Wait(ctx, "https://example.com"); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := r.Wait(ctx, "https://example.com"); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() after cancel = %v, want context.Canceled", err)
	}
}
