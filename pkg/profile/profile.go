// Package profile defines the common types for profile verification.
package profile

import (
	"errors"
	"strconv"
	"strings"
)

// Common errors returned by fetchers and analyzers.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNotJSON         = errors.New("response is not JSON")
)

// Identifier is a canonical profile URL with trailing separators stripped.
// It is used as the cache key and threaded through fetch and analysis.
type Identifier string

func (id Identifier) String() string { return string(id) }

// CountKind tags the representation held by a Count.
type CountKind int

// Count kinds.
const (
	CountAbsent CountKind = iota
	CountInt              // from the structured source
	CountText             // unparsed text from page metadata
)

// Count is a loosely-typed counter: absent, an integer, or raw text.
type Count struct {
	text string
	n    int64
	kind CountKind
}

// IntCount returns a Count holding an integer.
func IntCount(n int64) Count { return Count{kind: CountInt, n: n} }

// TextCount returns a Count holding unparsed text. Empty text is absent.
func TextCount(s string) Count {
	s = strings.TrimSpace(s)
	if s == "" {
		return Count{}
	}
	return Count{kind: CountText, text: s}
}

// Kind returns the tag of c.
func (c Count) Kind() CountKind { return c.kind }

// IsAbsent reports whether c carries no value.
func (c Count) IsAbsent() bool { return c.kind == CountAbsent }

// String renders c for display. Absent counts render as "".
func (c Count) String() string {
	switch c.kind {
	case CountInt:
		return strconv.FormatInt(c.n, 10)
	case CountText:
		return c.text
	default:
		return ""
	}
}

// Int coerces c to an integer. Text counts keep only their digits, so
// "1,204" yields 1204. The second result is false when there is no numeric
// signal.
func (c Count) Int() (int64, bool) {
	switch c.kind {
	case CountInt:
		return c.n, true
	case CountText:
		var b strings.Builder
		for _, r := range c.text {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() == 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(b.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Source names the fetch tier that produced a record.
const (
	SourceStructured = "structured"
	SourceMetadata   = "metadata"
)

// Record is the result of a fetch attempt.
//
// A record either has FetchError set and every other field empty, or has
// FetchError empty with any subset of the informational fields populated.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Record struct {
	DisplayName string
	Bio         string
	Posts       Count
	Followers   Count
	Following   Count
	AvatarURL   string

	// RawMarkup is only populated by the page metadata tier.
	RawMarkup string

	// Source is SourceStructured or SourceMetadata; empty on failures.
	Source string

	FetchError string
}

// Failed returns a record describing a total fetch failure.
func Failed(msg string) *Record {
	if msg == "" {
		msg = "unknown error"
	}
	return &Record{FetchError: msg}
}

// Failed reports whether r describes a fetch failure.
func (r *Record) Failed() bool { return r != nil && r.FetchError != "" }

// Empty reports whether r carries no informational field.
func (r *Record) Empty() bool {
	if r == nil {
		return true
	}
	return r.DisplayName == "" && r.Bio == "" && r.AvatarURL == "" &&
		r.Posts.IsAbsent() && r.Followers.IsAbsent() && r.Following.IsAbsent()
}

// Describe renders r as compact "key: value" lines for prompts and logs.
// RawMarkup is never included.
func (r *Record) Describe() string {
	if r == nil {
		return "no data"
	}
	if r.Failed() {
		return "fetch_error: " + r.FetchError
	}
	var b strings.Builder
	line := func(k, v string) {
		if v == "" {
			v = "unknown"
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	line("display_name", r.DisplayName)
	line("bio", r.Bio)
	line("posts", r.Posts.String())
	line("followers", r.Followers.String())
	line("following", r.Following.String())
	line("avatar_url", r.AvatarURL)
	if r.Source != "" {
		line("source", r.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}
