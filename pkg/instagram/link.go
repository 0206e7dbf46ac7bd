package instagram

import (
	"regexp"
	"strings"

	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

// Host is the profile host recognized by ProfileURL.
const Host = "instagram.com"

var defaultExtractor = NewExtractor(Host)

// Extractor pulls the first profile link for one host out of free-form text.
type Extractor struct {
	pattern *regexp.Regexp
}

// NewExtractor returns an Extractor for links of the form
// scheme://[www.]host/segment, where the segment ends at '/', '?', '#' or whitespace.
func NewExtractor(host string) *Extractor {
	return &Extractor{
		pattern: regexp.MustCompile(`https?://(?:www\.)?` + regexp.QuoteMeta(host) + `/[^/?#\s]+`),
	}
}

// Extract returns the first matching link with any trailing slash removed.
// Later links in the text are ignored. ok is false when the text has no link.
func (e *Extractor) Extract(text string) (id profile.Identifier, ok bool) {
	m := e.pattern.FindString(text)
	if m == "" {
		return "", false
	}
	return profile.Identifier(strings.TrimRight(m, "/")), true
}

// ProfileURL extracts the first Instagram profile link from text.
func ProfileURL(text string) (profile.Identifier, bool) {
	return defaultExtractor.Extract(text)
}

// Match returns true if the URL is an Instagram profile URL rather than a
// post, reel or other reserved page.
func Match(urlStr string) bool {
	if !strings.Contains(strings.ToLower(urlStr), Host+"/") {
		return false
	}
	return extractUsername(urlStr) != ""
}

var usernamePattern = regexp.MustCompile(`(?i)instagram\.com/([a-zA-Z0-9_.]+)`)

// reservedPaths are first path segments that never name a profile.
var reservedPaths = map[string]bool{
	"p": true, "reel": true, "reels": true, "stories": true,
	"explore": true, "direct": true, "accounts": true,
	"about": true, "legal": true, "privacy": true,
	"terms": true, "api": true, "developer": true,
}

func extractUsername(urlStr string) string {
	matches := usernamePattern.FindStringSubmatch(urlStr)
	if len(matches) < 2 {
		return ""
	}
	if reservedPaths[strings.ToLower(matches[1])] {
		return ""
	}
	return matches[1]
}
