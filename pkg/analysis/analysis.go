// Package analysis turns profile records into short human-readable summaries.
//
// Two strategies exist: an AI-backed one that calls a completion service and
// a local heuristic that never fails. Select picks between them once, at
// construction time, based on whether an AI client is configured.
package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/codeGROOVE-dev/artcheck/pkg/ai"
	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

// ErrUnavailable is returned when no AI service is configured.
var ErrUnavailable = errors.New("AI analysis is not configured")

// Analyzer produces a summary of a profile record.
type Analyzer interface {
	Analyze(ctx context.Context, rec *profile.Record, id profile.Identifier) (string, error)
}

// Error is a runtime failure of the AI analyzer. It wraps the upstream error.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "AI analysis failed: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Unavailable is the analyzer used when no AI service is configured.
type Unavailable struct{}

// Analyze always returns ErrUnavailable.
func (Unavailable) Analyze(context.Context, *profile.Record, profile.Identifier) (string, error) {
	return "", ErrUnavailable
}

// Outcome is the result of running a Strategy.
type Outcome struct {
	Err      error // AI failure that caused the fallback, if any
	Text     string
	FromAI   bool
	Degraded bool // AI was configured but failed; Text is the local fallback
}

// Strategy runs the primary analyzer and falls back to the local one.
type Strategy struct {
	Primary  Analyzer
	Fallback Local
	logger   *slog.Logger
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Strategy) { s.logger = logger }
}

// Select returns a Strategy backed by client, or a local-only Strategy when
// client is nil.
func Select(client ai.Client, opts ...Option) Strategy {
	s := Strategy{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	s.Primary = NewAI(client, s.logger)
	return s
}

// Configured reports whether the primary analyzer is backed by an AI service.
func (s Strategy) Configured() bool {
	if s.Primary == nil {
		return false
	}
	_, unavailable := s.Primary.(Unavailable)
	return !unavailable
}

// Run analyzes rec. It never fails: an AI error yields the local summary
// with Degraded set, and an unconfigured AI yields the local summary alone.
func (s Strategy) Run(ctx context.Context, rec *profile.Record, id profile.Identifier) Outcome {
	if s.Primary != nil {
		text, err := s.Primary.Analyze(ctx, rec, id)
		switch {
		case err == nil:
			return Outcome{Text: text, FromAI: true}
		case errors.Is(err, ErrUnavailable):
		default:
			s.log().WarnContext(ctx, "AI analysis failed, using local fallback", "id", id, "error", err, "rate_limited", ai.IsRateLimit(err))
			return Outcome{Text: s.Fallback.Summarize(rec), Degraded: true, Err: err}
		}
	}
	return Outcome{Text: s.Fallback.Summarize(rec)}
}

func (s Strategy) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
