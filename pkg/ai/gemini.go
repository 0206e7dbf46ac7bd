package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

func init() {
	Register("gemini", newGemini, "google")
}

type geminiClient struct {
	client  *genai.Client
	logger  *slog.Logger
	model   string
	timeout time.Duration
}

func newGemini(cfg Config) (Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = openAITimeout
	}
	return &geminiClient{
		client:  client,
		logger:  cfg.Logger,
		model:   orDefault(cfg.Model, geminiModel),
		timeout: timeout,
	}, nil
}

// Complete generates a single response.
func (g *geminiClient) Complete(ctx context.Context, r Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(r.Temperature)),
	}
	if r.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(r.MaxTokens) //nolint:gosec // small bounded value
	}
	if r.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(r.Prompt, genai.RoleUser)}, gc)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	g.logger.DebugContext(ctx, "gemini completion", "model", g.model, "elapsed", time.Since(start).Round(time.Millisecond))
	return resp.Text(), nil
}
