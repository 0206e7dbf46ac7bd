package chat

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// MaxMessageRunes is Discord's message length limit.
const MaxMessageRunes = 2000

// messenger is the subset of *discordgo.Session used for replies.
type messenger interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// channelReplier replies in the channel a command came from.
type channelReplier struct {
	api       messenger
	channelID string
}

// Send posts content, split into several messages if it is too long.
func (r *channelReplier) Send(ctx context.Context, content string) error {
	for _, chunk := range Split(content, MaxMessageRunes) {
		if _, err := r.api.ChannelMessageSend(r.channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// Typing shows the typing indicator.
func (r *channelReplier) Typing(ctx context.Context) error {
	return r.api.ChannelTyping(r.channelID, discordgo.WithContext(ctx))
}

// Split breaks s into chunks of at most n runes, preferring line breaks.
func Split(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	var chunks []string
	r := []rune(s)
	for len(r) > n {
		cut := n
		if i := lastNewline(r[:n]); i > 0 {
			cut = i + 1
		}
		chunks = append(chunks, strings.TrimRight(string(r[:cut]), "\n"))
		r = r[cut:]
	}
	return append(chunks, string(r))
}

func lastNewline(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == '\n' {
			return i
		}
	}
	return -1
}
