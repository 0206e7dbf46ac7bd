package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeGROOVE-dev/artcheck/pkg/ai"
	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
)

const (
	systemPrompt = "You are a concise assistant. Give a short, useful summary of the Instagram profile. " +
		"State the name, bio and follower count if available, and say whether the account looks official."
	maxTokens   = 300
	temperature = 0.2
)

var errEmptyCompletion = errors.New("empty completion")

// AI analyzes records with a completion service.
type AI struct {
	client ai.Client
	logger *slog.Logger
}

// NewAI returns an AI analyzer, or Unavailable when client is nil.
func NewAI(client ai.Client, logger *slog.Logger) Analyzer {
	if client == nil {
		return Unavailable{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AI{client: client, logger: logger}
}

// Analyze asks the completion service for a summary of rec. Failures are
// returned as *Error.
func (a *AI) Analyze(ctx context.Context, rec *profile.Record, id profile.Identifier) (string, error) {
	a.logger.DebugContext(ctx, "requesting AI analysis", "id", id)

	text, err := a.client.Complete(ctx, ai.Request{
		System:      systemPrompt,
		Prompt:      Prompt(rec, id),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", &Error{Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Err: errEmptyCompletion}
	}
	return text, nil
}

// Prompt builds the user message for id, embedding the raw record.
func Prompt(rec *profile.Record, id profile.Identifier) string {
	return fmt.Sprintf("Analyze this Instagram profile: %s\n\n"+
		"Here is the retrieved information (raw):\n%s\n\n"+
		"Write a short summary (max 6 lines). Say whether the account looks official or not and cite the signals.",
		id, rec.Describe())
}
