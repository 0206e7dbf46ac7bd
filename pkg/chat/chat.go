// Package chat adapts a Discord bot session to the dispatcher.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/artcheck/pkg/dispatch"
)

// Description is shown in the bot's help text.
const Description = "Artist verification bot: checks and summarizes Instagram profile links"

const (
	defaultPrefix = "!"
	openAttempts  = 3
	openDelay     = 2 * time.Second
)

// Handler receives parsed chat commands.
type Handler interface {
	HandleCheck(reply dispatch.Replier, text string) error
	HandlePing(reply dispatch.Replier) error
}

// Bot is a Discord gateway session routing prefix commands to a Handler.
type Bot struct {
	session *discordgo.Session
	handler Handler
	logger  *slog.Logger
	prefix  string
}

// Option configures a Bot.
type Option func(*Bot)

// WithPrefix sets the command prefix (default "!").
func WithPrefix(prefix string) Option {
	return func(b *Bot) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// New creates a bot for token. The gateway is not contacted until Open.
func New(token string, h Handler, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, errors.New("chat: empty bot token")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{session: session, handler: h, logger: slog.Default(), prefix: defaultPrefix}
	for _, opt := range opts {
		opt(b)
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("discord session ready", "user", r.User.Username, "id", r.User.ID, "prefix", b.prefix)
	})
	session.AddHandler(b.onMessage)
	return b, nil
}

// Open connects to the gateway, retrying a few times at startup.
func (b *Bot) Open(ctx context.Context) error {
	return retry.Do(
		b.session.Open,
		retry.Context(ctx),
		retry.Attempts(openAttempts),
		retry.Delay(openDelay),
		retry.OnRetry(func(n uint, err error) {
			b.logger.WarnContext(ctx, "discord gateway open failed, retrying", "attempt", n+1, "error", err)
		}),
	)
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	b.route(&channelReplier{api: s, channelID: m.ChannelID}, m.Content)
}

// route dispatches one message. Unknown commands are ignored.
func (b *Bot) route(reply dispatch.Replier, content string) {
	name, args, ok := ParseCommand(b.prefix, content)
	if !ok {
		return
	}

	var err error
	switch name {
	case "check":
		err = b.handler.HandleCheck(reply, args)
	case "ping":
		err = b.handler.HandlePing(reply)
	default:
		return
	}
	if err != nil {
		b.logger.Warn("command not scheduled", "command", name, "error", err)
	}
}

// ParseCommand splits "<prefix><name> <args>" into its parts. The name is
// lowercased; args keep their original text minus surrounding whitespace.
func ParseCommand(prefix, content string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	rest, found := strings.CutPrefix(content, prefix)
	if !found || rest == "" {
		return "", "", false
	}
	name, args, _ = strings.Cut(rest, " ")
	if i := strings.IndexAny(name, "\n\t"); i >= 0 {
		args = name[i:] + " " + args
		name = name[:i]
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}
