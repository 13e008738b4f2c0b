package sage

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
)

// Message is the context for a posted or edited message.
type Message struct {
	base

	Msg *discordgo.Message
	// Prev is the message before an edit; nil for posts or when not cached.
	Prev *discordgo.Message
	Type listener.EventType
}

// NewMessage wraps msg and resolves the channel's game.
func NewMessage(ctx context.Context, env *Env, botID string, msg, prev *discordgo.Message, typ listener.EventType) (*Message, error) {
	b, err := newBase(ctx, env, botID, msg.GuildID, msg.ChannelID, msg.Author)
	if err != nil {
		return nil, err
	}
	return &Message{base: b, Msg: msg, Prev: prev, Type: typ}, nil
}

// Clone implements listener.Context.
func (m *Message) Clone() *Message {
	c := *m
	c.base = m.base.clone()
	return &c
}

func (m *Message) Content() string { return m.Msg.Content }

// IsEdit reports whether this event is an edit.
func (m *Message) IsEdit() bool { return m.Type == listener.MessageEdit }

// CommandText returns the message text after the optional prefix and the
// leading "!" or "!!". ok is false if the message is not a command.
func (m *Message) CommandText() (string, bool) {
	return CommandText(m.Content(), m.env.Prefix)
}

// CommandText strips prefix (case-insensitive, optional) and one or two
// leading '!' from content.
func CommandText(content, prefix string) (string, bool) {
	s := strings.TrimSpace(content)
	if p := len(prefix); p > 0 && len(s) > p && strings.EqualFold(s[:p], prefix) {
		if rest := strings.TrimLeft(s[p:], " \t"); strings.HasPrefix(rest, "!") {
			s = rest
		}
	}
	if !strings.HasPrefix(s, "!") {
		return "", false
	}
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Send posts content to the message's channel.
func (m *Message) Send(content string) (*discordgo.Message, error) {
	return m.Session().ChannelMessageSend(m.channelID, content)
}

// SendComplex posts a message with embeds or components.
func (m *Message) SendComplex(data *discordgo.MessageSend) (*discordgo.Message, error) {
	return m.Session().ChannelMessageSendComplex(m.channelID, data)
}

// Reply posts content as a reply to the message.
func (m *Message) Reply(content string) (*discordgo.Message, error) {
	return m.SendComplex(&discordgo.MessageSend{
		Content:   content,
		Reference: m.Msg.Reference(),
	})
}

// React adds emoji to the message.
func (m *Message) React(emoji string) error {
	return m.Session().MessageReactionAdd(m.channelID, m.Msg.ID, emoji)
}
