// Command artcheck fetches one Instagram profile and prints its summary.
//
// Usage:
//
//	artcheck https://instagram.com/art_jane
//	artcheck "is this the real one? https://www.instagram.com/art_jane/"
//	artcheck -browser-cookies -record https://instagram.com/art_jane
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/artcheck/pkg/ai"
	"github.com/codeGROOVE-dev/artcheck/pkg/analysis"
	"github.com/codeGROOVE-dev/artcheck/pkg/auth"
	"github.com/codeGROOVE-dev/artcheck/pkg/config"
	"github.com/codeGROOVE-dev/artcheck/pkg/dispatch"
	"github.com/codeGROOVE-dev/artcheck/pkg/instagram"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("v", false, "verbose logging (same as -debug)")
	browserCookies := flag.Bool("browser-cookies", false, "read Instagram session cookies from local browser stores")
	localOnly := flag.Bool("local", false, "skip AI analysis even when an API key is set")
	showRecord := flag.Bool("record", false, "print the fetched profile fields before the summary")
	timeout := flag.Duration("timeout", time.Minute, "overall deadline")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: artcheck [options] <instagram url or text containing one>")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nEnvironment:")
		fmt.Fprintln(os.Stderr, "  OPENAI_API_KEY or GEMINI_API_KEY enable AI analysis")
		fmt.Fprintf(os.Stderr, "  %s enable the structured tier\n", strings.Join(auth.EnvVars(), ", "))
		os.Exit(1)
	}
	input := strings.Join(flag.Args(), " ")

	logLevel := slog.LevelWarn
	if *debug || *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if strings.Contains(input, "://") && !strings.Contains(input, " ") && !instagram.Match(input) {
		fmt.Fprintf(os.Stderr, "Error: not an Instagram profile URL: %s\n", input)
		os.Exit(1)
	}
	id, ok := instagram.ProfileURL(input)
	if !ok {
		fmt.Fprintln(os.Stderr, dispatch.MsgNoLink)
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("failed to load .env file", "error", err)
	}
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sources := []auth.Source{auth.EnvSource{}}
	if *browserCookies {
		sources = append(sources, auth.NewBrowserSource(logger))
	}
	ig, err := instagram.New(ctx, instagram.WithLogger(logger), instagram.WithCookieSources(sources...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
	}

	var client ai.Client
	if !*localOnly {
		client, err = ai.New(cfg.AIConfig(logger))
		if err != nil && !errors.Is(err, ai.ErrNotConfigured) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	strategy := analysis.Select(client, analysis.WithLogger(logger))

	rec := ig.Fetch(ctx, id)
	if *showRecord {
		fmt.Printf("%s\n%s\n\n", id, rec.Describe())
	}

	out := strategy.Run(ctx, rec, id)
	if out.Degraded {
		fmt.Fprintf(os.Stderr, "warning: %v\n", out.Err)
	}
	fmt.Println(out.Text)
	if rec.Failed() {
		os.Exit(2)
	}
}
