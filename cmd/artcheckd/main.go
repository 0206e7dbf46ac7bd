// Command artcheckd runs the artist verification bot: a Discord session
// answering !check and !ping, and an HTTP endpoint accepting submissions.
//
// Usage:
//
//	DISCORD_TOKEN=... OPENAI_API_KEY=... artcheckd
//	artcheckd -config artcheck.yaml -addr :9090 -debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/artcheck/pkg/ai"
	"github.com/codeGROOVE-dev/artcheck/pkg/analysis"
	"github.com/codeGROOVE-dev/artcheck/pkg/auth"
	"github.com/codeGROOVE-dev/artcheck/pkg/chat"
	"github.com/codeGROOVE-dev/artcheck/pkg/config"
	"github.com/codeGROOVE-dev/artcheck/pkg/dispatch"
	"github.com/codeGROOVE-dev/artcheck/pkg/instagram"
	"github.com/codeGROOVE-dev/artcheck/pkg/loop"
	"github.com/codeGROOVE-dev/artcheck/pkg/relay"
	"github.com/codeGROOVE-dev/artcheck/pkg/resultcache"
	"github.com/codeGROOVE-dev/artcheck/pkg/submit"
	"github.com/codeGROOVE-dev/artcheck/pkg/webclient"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides ARTCHECK_ADDR)")
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("v", false, "verbose logging (same as -debug)")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug || *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("failed to load .env file", "error", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("artcheckd stopped", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	cache := resultcache.New(cfg.CacheTTL, resultcache.WithSize(cfg.CacheSize), resultcache.WithLogger(logger))
	ig, err := instagram.New(ctx,
		instagram.WithCache(cache),
		instagram.WithLogger(logger),
		instagram.WithRateLimiter(webclient.NewRateLimiter(webclient.DefaultMinDelay, logger)),
		instagram.WithCookieSources(auth.EnvSource{}),
	)
	if err != nil {
		return fmt.Errorf("instagram client: %w", err)
	}

	client, err := ai.New(cfg.AIConfig(logger))
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Info("AI analysis disabled, using local summaries", "provider", cfg.AIConfig(nil).Provider)
		client = nil
	case err != nil:
		return fmt.Errorf("ai client: %w", err)
	}
	strategy := analysis.Select(client, analysis.WithLogger(logger))
	logger.Info("analysis ready", "ai", strategy.Configured(), "providers", ai.Providers(), "cache_ttl", cache.TTL())

	if cfg.RelayURL == "" {
		logger.Warn("RELAY_WEBHOOK_URL not set, submissions will not be relayed")
	}

	l := loop.New(loop.WithQueueSize(cfg.QueueSize), loop.WithWorkers(cfg.Workers), loop.WithLogger(logger))
	d := dispatch.New(l, ig, strategy, relay.New(cfg.RelayURL, relay.WithLogger(logger)), dispatch.WithLogger(logger))

	bot, err := chat.New(cfg.DiscordToken, d, chat.WithPrefix(cfg.Prefix), chat.WithLogger(logger))
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := submit.NewRouter(d, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.Run(ctx) })
	g.Go(func() error { return submit.Serve(ctx, cfg.Addr, router, logger) })
	g.Go(func() error {
		if err := bot.Open(ctx); err != nil {
			return fmt.Errorf("discord gateway: %w", err)
		}
		logger.InfoContext(ctx, "bot connected", "description", chat.Description)
		<-ctx.Done()
		return bot.Close()
	})
	return g.Wait()
}
