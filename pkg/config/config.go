// Package config loads daemon settings from the environment, an optional
// .env file, and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/artcheck/pkg/ai"
	"github.com/codeGROOVE-dev/artcheck/pkg/resultcache"
)

// ErrMissingToken is returned by Validate when no Discord token is set.
var ErrMissingToken = errors.New("set DISCORD_TOKEN in the environment or .env file")

// Environment variable names.
const (
	EnvDiscordToken = "DISCORD_TOKEN"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvAIProvider   = "AI_PROVIDER"
	EnvAIModel      = "AI_MODEL"
	EnvRelayURL     = "RELAY_WEBHOOK_URL"
	EnvAddr         = "ARTCHECK_ADDR"
	EnvPrefix       = "ARTCHECK_PREFIX"
	EnvCacheTTL     = "ARTCHECK_CACHE_TTL"
	EnvCacheSize    = "ARTCHECK_CACHE_SIZE"
	EnvQueueSize    = "ARTCHECK_QUEUE_SIZE"
	EnvWorkers      = "ARTCHECK_WORKERS"
)

const (
	defaultAddr   = ":8080"
	defaultPrefix = "!"
)

// Config holds daemon settings.
type Config struct {
	DiscordToken string
	Prefix       string
	Addr         string
	RelayURL     string
	CacheTTL     time.Duration
	AI           AI

	// Zero selects the package default.
	CacheSize int
	QueueSize int
	Workers   int
}

// AI holds provider selection and credentials.
type AI struct {
	Provider  string
	Model     string
	OpenAIKey string
	GeminiKey string
}

// file is the YAML layout. Secrets may live here but the environment wins.
type file struct {
	DiscordToken string `yaml:"discord_token"`
	Prefix       string `yaml:"prefix"`
	Addr         string `yaml:"addr"`
	RelayURL     string `yaml:"relay_webhook_url"`
	CacheTTL     string `yaml:"cache_ttl"`
	CacheSize    int    `yaml:"cache_size"`
	QueueSize    int    `yaml:"queue_size"`
	Workers      int    `yaml:"workers"`
	AI           struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		OpenAIKey string `yaml:"openai_api_key"`
		GeminiKey string `yaml:"gemini_api_key"`
	} `yaml:"ai"`
}

// LoadDotEnv loads KEY=VALUE files into the process environment. Variables
// already set are left alone, and missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at path (if non-empty) and overlays the
// environment on top of it.
func Load(path string) (*Config, error) {
	var f file
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg := &Config{
		DiscordToken: env(EnvDiscordToken, f.DiscordToken),
		Prefix:       env(EnvPrefix, f.Prefix, defaultPrefix),
		Addr:         env(EnvAddr, f.Addr, defaultAddr),
		RelayURL:     env(EnvRelayURL, f.RelayURL),
		AI: AI{
			Provider:  env(EnvAIProvider, f.AI.Provider),
			Model:     env(EnvAIModel, f.AI.Model),
			OpenAIKey: env(EnvOpenAIKey, f.AI.OpenAIKey),
			GeminiKey: env(EnvGeminiKey, f.AI.GeminiKey),
		},
		CacheTTL: resultcache.DefaultTTL,
	}

	if s := env(EnvCacheTTL, f.CacheTTL); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("cache ttl %q: %w", s, err)
		}
		if d > 0 {
			cfg.CacheTTL = d
		}
	}

	for _, n := range []struct {
		dst  *int
		key  string
		file int
	}{
		{&cfg.CacheSize, EnvCacheSize, f.CacheSize},
		{&cfg.QueueSize, EnvQueueSize, f.QueueSize},
		{&cfg.Workers, EnvWorkers, f.Workers},
	} {
		v, err := envInt(n.key, n.file)
		if err != nil {
			return nil, err
		}
		*n.dst = v
	}
	return cfg, nil
}

// envInt returns the variable's value as a non-negative integer, or fallback
// when it is unset.
func envInt(key string, fallback int) (int, error) {
	n := fallback
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s %q: %w", key, s, err)
		}
		n = v
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: negative value %d", key, n)
	}
	return n, nil
}

// Validate reports settings the daemon cannot start without.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	return nil
}

// AIConfig returns the provider configuration. Without an explicit provider
// it picks whichever key is present, OpenAI first.
func (c *Config) AIConfig(logger *slog.Logger) ai.Config {
	provider := strings.ToLower(c.AI.Provider)
	if provider == "" {
		provider = ai.DefaultProvider
		if c.AI.OpenAIKey == "" && c.AI.GeminiKey != "" {
			provider = "gemini"
		}
	}

	key := c.AI.OpenAIKey
	if provider == "gemini" || provider == "google" {
		key = c.AI.GeminiKey
	}
	return ai.Config{
		Logger:   logger,
		Provider: provider,
		APIKey:   key,
		Model:    c.AI.Model,
	}
}

// env returns the first non-empty of the variable's value and the fallbacks.
func env(key string, fallbacks ...string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	for _, v := range fallbacks {
		if v != "" {
			return v
		}
	}
	return ""
}
