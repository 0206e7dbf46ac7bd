package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewNotConfigured(t *testing.T) {
	for _, provider := range []string{"", "openai", "gemini"} {
		t.Run(provider, func(t *testing.T) {
			_, err := New(Config{Provider: provider, APIKey: "  "})
			if !errors.Is(err, ErrNotConfigured) {
				t.Errorf("New() error = %v, want ErrNotConfigured", err)
			}
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "nope", APIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("New() error = %v, want unregistered provider error", err)
	}
	if err != nil && !strings.Contains(err.Error(), "openai") {
		t.Errorf("New() error = %v, want the known providers listed", err)
	}
}

func TestProviders(t *testing.T) {
	got := Providers()
	for _, want := range []string{"gemini", "openai"} {
		if !slices.Contains(got, want) {
			t.Errorf("Providers() = %v, missing %q", got, want)
		}
	}
}

func TestOpenAIComplete(t *testing.T) {
	var got chatRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  Looks official.  "}}]}`)
	}))
	defer srv.Close()

	c, err := New(Config{Provider: "OpenAI", APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	text, err := c.Complete(context.Background(), Request{System: "be brief", Prompt: "hello", MaxTokens: 300, Temperature: 0.2})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "  Looks official.  " {
		t.Errorf("Complete() = %q", text)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if path != "/v1/chat/completions" {
		t.Errorf("path = %q", path)
	}
	want := chatRequest{
		Model: openAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello"},
		},
		MaxTokens:   300,
		Temperature: 0.2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		rateLimit bool
		apiError  bool
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"code":"insufficient_quota"}}`, true, true},
		{"server error", http.StatusBadGateway, "bad gateway", false, true},
		{"no choices", http.StatusOK, `{"choices":[]}`, false, false},
		{"malformed", http.StatusOK, `not json`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c, err := New(Config{APIKey: "k", BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			_, err = c.Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("Complete() error = nil")
			}
			if got := IsRateLimit(err); got != tt.rateLimit {
				t.Errorf("IsRateLimit() = %v, want %v", got, tt.rateLimit)
			}
			var apiErr *APIError
			if got := errors.As(err, &apiErr); got != tt.apiError {
				t.Errorf("errors.As(*APIError) = %v, want %v", got, tt.apiError)
			}
			if tt.apiError && apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Provider: "openai", StatusCode: 500}
	if got := err.Error(); got != "openai: HTTP 500" {
		t.Errorf("Error() = %q", got)
	}
	wrapped := fmt.Errorf("analyze: %w", &APIError{Provider: "openai", StatusCode: 429, Body: "slow down"})
	if !IsRateLimit(wrapped) {
		t.Error("IsRateLimit() = false for wrapped 429")
	}
	if IsRateLimit(errors.New("429")) {
		t.Error("IsRateLimit() = true for a plain error")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short  ", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdefgh", 3); got != "abc..." {
		t.Errorf("truncate() = %q", got)
	}
}
