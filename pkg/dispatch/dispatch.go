// Package dispatch connects the chat and HTTP entry points to the profile
// verification pipeline.
//
// Both entry points only enqueue work on the event loop, which hands every
// network call to the worker pool. A chat request runs its replies, fetch and
// analysis in order on one worker; HTTP submissions are handed over
// fire-and-forget and their result is relayed to a webhook instead of the
// caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeGROOVE-dev/artcheck/pkg/analysis"
	"github.com/codeGROOVE-dev/artcheck/pkg/instagram"
	"github.com/codeGROOVE-dev/artcheck/pkg/loop"
	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

// User-visible chat messages.
const (
	MsgNoLink     = "I couldn't find a valid Instagram link in your message."
	MsgPong       = "Pong! I'm alive :eyes:"
	MsgAIDegraded = "⚠️ AI analysis failed (quota or other error). Using local fallback mode."
	aiPrefix      = "**AI analysis:**\n"
	unavailPrefix = "AI analysis unavailable: "
)

// Replier sends messages back to where a chat command came from.
type Replier interface {
	Send(ctx context.Context, content string) error
	Typing(ctx context.Context) error
}

// Fetcher returns a profile record; failures are carried in the record.
type Fetcher interface {
	Fetch(ctx context.Context, id profile.Identifier) *profile.Record
}

// Relayer posts a message to the outbound notification endpoint.
type Relayer interface {
	Post(ctx context.Context, content string) error
}

// Extractor finds a profile identifier in free-form text.
type Extractor func(text string) (profile.Identifier, bool)

// Dispatcher schedules pipeline runs on the event loop.
type Dispatcher struct {
	loop     *loop.Loop
	fetcher  Fetcher
	relay    Relayer
	extract  Extractor
	logger   *slog.Logger
	strategy analysis.Strategy
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExtractor replaces the Instagram link extractor.
func WithExtractor(e Extractor) Option {
	return func(d *Dispatcher) { d.extract = e }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New creates a Dispatcher.
func New(l *loop.Loop, f Fetcher, s analysis.Strategy, r Relayer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		loop:     l,
		fetcher:  f,
		strategy: s,
		relay:    r,
		extract:  instagram.ProfileURL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandlePing replies with a fixed liveness message.
func (d *Dispatcher) HandlePing(reply Replier) error {
	_, err := d.loop.Submit(func(ctx context.Context) {
		loop.Offload(ctx, d.loop, func(ctx context.Context) struct{} {
			d.send(ctx, reply, MsgPong)
			return struct{}{}
		}, nil)
	})
	return err
}

// HandleCheck schedules a profile check for the first link in text. Replies
// arrive in order: an acknowledgement, then the AI summary or the local one.
// None of them is sent from the loop goroutine.
func (d *Dispatcher) HandleCheck(reply Replier, text string) error {
	h, err := d.loop.Submit(func(ctx context.Context) {
		loop.Offload(ctx, d.loop,
			func(ctx context.Context) string {
				return d.check(ctx, reply, text)
			},
			func(ctx context.Context, result string) {
				d.logger.DebugContext(ctx, "check finished", "result", result)
			})
	})
	if err != nil {
		return fmt.Errorf("schedule check: %w", err)
	}
	d.logger.Debug("check scheduled", "task", h.ID)
	return nil
}

// check runs one chat request on a worker and returns a short result label.
func (d *Dispatcher) check(ctx context.Context, reply Replier, text string) string {
	if err := reply.Typing(ctx); err != nil {
		d.logger.DebugContext(ctx, "typing indicator failed", "error", err)
	}

	id, ok := d.extract(text)
	if !ok {
		d.send(ctx, reply, MsgNoLink)
		return "no link"
	}
	d.send(ctx, reply, fmt.Sprintf("Fetching profile: %s ...", id))

	out := d.strategy.Run(ctx, d.fetcher.Fetch(ctx, id), id)
	switch {
	case out.Degraded:
		d.send(ctx, reply, MsgAIDegraded)
		d.send(ctx, reply, out.Text)
		return "degraded"
	case out.FromAI:
		d.send(ctx, reply, aiPrefix+out.Text)
		return "ai"
	default:
		d.send(ctx, reply, out.Text)
		return "local"
	}
}

func (d *Dispatcher) send(ctx context.Context, reply Replier, content string) {
	if err := reply.Send(ctx, content); err != nil {
		d.logger.WarnContext(ctx, "reply failed", "error", err)
	}
}

// Submit hands a submission to the event loop and returns without waiting.
// The analysis is relayed to the webhook; relay failures are only logged.
// A non-nil error means the loop could not accept the work.
func (d *Dispatcher) Submit(pseudo, link string) error {
	// The handle is never awaited.
	h, err := d.loop.Submit(func(ctx context.Context) {
		loop.Offload(ctx, d.loop,
			func(ctx context.Context) error {
				return d.relaySubmission(ctx, pseudo, link)
			},
			func(ctx context.Context, err error) {
				if err != nil {
					d.logger.WarnContext(ctx, "relay failed", "pseudo", pseudo, "error", err)
					return
				}
				d.logger.InfoContext(ctx, "submission relayed", "pseudo", pseudo)
			})
	})
	if err != nil {
		d.logger.Warn("submission not scheduled", "pseudo", pseudo, "error", err)
		return fmt.Errorf("schedule submission: %w", err)
	}
	d.logger.Info("submission scheduled", "pseudo", pseudo, "task", h.ID)
	return nil
}

func (d *Dispatcher) relaySubmission(ctx context.Context, pseudo, link string) error {
	content := fmt.Sprintf("**%s** submitted %s\n%s", pseudo, link, d.analyzeSubmission(ctx, link))
	return d.relay.Post(ctx, content)
}

// analyzeSubmission runs the AI analyzer only; there is no local fallback
// for submissions.
func (d *Dispatcher) analyzeSubmission(ctx context.Context, link string) string {
	id, ok := d.extract(link)
	if !ok {
		return MsgNoLink
	}
	rec := d.fetcher.Fetch(ctx, id)

	primary := d.strategy.Primary
	if primary == nil {
		primary = analysis.Unavailable{}
	}
	text, err := primary.Analyze(ctx, rec, id)
	if err != nil {
		d.logger.InfoContext(ctx, "submission analysis unavailable", "id", id, "error", err)
		return unavailPrefix + reason(err)
	}
	return text
}

func reason(err error) string {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return aerr.Err.Error()
	}
	return err.Error()
}
