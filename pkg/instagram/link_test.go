package instagram

import (
	"testing"

	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

func TestProfileURL(t *testing.T) {
	tests := []struct {
		text   string
		want   profile.Identifier
		wantOK bool
	}{
		{"https://instagram.com/art_jane", "https://instagram.com/art_jane", true},
		{"look https://www.instagram.com/art_jane/ please", "https://www.instagram.com/art_jane", true},
		{"http://instagram.com/jane.doe?igsh=abc", "http://instagram.com/jane.doe", true},
		{"https://instagram.com/jane#top", "https://instagram.com/jane", true},
		{"one https://instagram.com/first two https://instagram.com/second", "https://instagram.com/first", true},
		{"no link here", "", false},
		{"https://twitter.com/jane", "", false},
		{"https://instagram.com/", "", false},
		{"instagram.com/jane", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ProfileURL(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ProfileURL(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractorHost(t *testing.T) {
	e := NewExtractor("site.example")
	got, ok := e.Extract("check this https://site.example/art_jane out")
	if !ok || got != "https://site.example/art_jane" {
		t.Errorf("Extract() = (%q, %v), want (%q, true)", got, ok, "https://site.example/art_jane")
	}
	if _, ok := e.Extract("https://siteXexample/art_jane"); ok {
		t.Error("Extract() matched a host with the dot treated as a wildcard")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://instagram.com/johndoe", true},
		{"https://www.instagram.com/johndoe", true},
		{"https://INSTAGRAM.COM/johndoe", true},
		{"https://instagram.com/p/ABC123", false},
		{"https://instagram.com/reel/ABC123", false},
		{"https://instagram.com/stories/user", false},
		{"https://instagram.com/explore", false},
		{"https://twitter.com/johndoe", false},
		{"https://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := Match(tt.url); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestExtractUsername(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://instagram.com/johndoe", "johndoe"},
		{"https://www.instagram.com/jane_doe", "jane_doe"},
		{"https://instagram.com/user.name", "user.name"},
		{"https://instagram.com/p/ABC123", ""},
		{"https://instagram.com/explore", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := extractUsername(tt.url); got != tt.want {
				t.Errorf("extractUsername(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
