package sage

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
)

// Reaction is the context for an added or removed reaction.
type Reaction struct {
	base

	Raw  *discordgo.MessageReaction
	Type listener.EventType
}

// NewReaction wraps r made by user and resolves the channel's game.
func NewReaction(ctx context.Context, env *Env, botID string, r *discordgo.MessageReaction, user *discordgo.User, typ listener.EventType) (*Reaction, error) {
	b, err := newBase(ctx, env, botID, r.GuildID, r.ChannelID, user)
	if err != nil {
		return nil, err
	}
	return &Reaction{base: b, Raw: r, Type: typ}, nil
}

// Clone implements listener.Context.
func (r *Reaction) Clone() *Reaction {
	c := *r
	c.base = r.base.clone()
	return &c
}

// Emoji returns the emoji in the form accepted by MessageReactionAdd.
func (r *Reaction) Emoji() string { return r.Raw.Emoji.APIName() }

func (r *Reaction) MessageID() string { return r.Raw.MessageID }

// Message fetches the reacted-to message once per event.
func (r *Reaction) Message() (*discordgo.Message, error) {
	v, err := r.Cached("message", func() (any, error) {
		return r.Session().ChannelMessage(r.channelID, r.Raw.MessageID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*discordgo.Message), nil
}

// IsOnBotMessage reports whether the reacted-to message was posted by the bot.
func (r *Reaction) IsOnBotMessage() (bool, error) {
	msg, err := r.Message()
	if err != nil {
		return false, err
	}
	return msg.Author != nil && msg.Author.ID == r.botID, nil
}

// DeleteMessage deletes the reacted-to message.
func (r *Reaction) DeleteMessage() error {
	return r.Session().ChannelMessageDelete(r.channelID, r.Raw.MessageID)
}
