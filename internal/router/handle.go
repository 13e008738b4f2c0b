package router

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/sage"
	"go.uber.org/zap"
)

// HandleInteraction dispatches a supported interaction to the first
// matching interaction listener. Unsupported interactions are ignored.
func (r *Router) HandleInteraction(ctx context.Context, i *discordgo.Interaction) (listener.Outcome, error) {
	if i == nil || !IsSupportedInteraction(i) {
		return listener.Outcome{}, nil
	}

	c, err := sage.NewInteraction(ctx, r.env, r.BotID(), i)
	if err != nil {
		r.log.Error("Failed to build interaction context", zap.String("interaction", i.ID), zap.Error(err))
		return listener.Outcome{}, err
	}
	defer c.Clear()

	out, err := listener.Dispatch(ctx, r.interactions.Listeners(), c, 0)
	if err != nil {
		r.log.Error("Interaction dispatch failed",
			zap.String("user", c.ActorID()),
			zap.String("interaction", i.ID),
			zap.Stringer("kind", c.Kind),
			zap.String("name", c.Name()),
			zap.Error(err))
		return listener.Outcome{}, err
	}

	r.logOutcome("interaction", c.Name(), out)
	return out, nil
}

// HandleMessage dispatches a posted or edited message. prev is the message
// before an edit and may be nil.
func (r *Router) HandleMessage(ctx context.Context, msg, prev *discordgo.Message, typ listener.EventType) (listener.Outcome, error) {
	if msg == nil || msg.Author == nil {
		return listener.Outcome{}, nil
	}
	if IsIgnoredBot(msg.Author, r.testBotID) {
		return listener.Outcome{}, nil
	}
	if msg.WebhookID != "" {
		return listener.Outcome{}, nil
	}
	if typ == listener.MessageEdit && IsEditWeCanIgnore(msg, prev) {
		r.log.Debug("Ignoring link preview edit", zap.String("message", msg.ID))
		return listener.Outcome{}, nil
	}

	c, err := sage.NewMessage(ctx, r.env, r.BotID(), msg, prev, typ)
	if err != nil {
		r.log.Error("Failed to build message context", zap.String("message", msg.ID), zap.Error(err))
		return listener.Outcome{}, err
	}
	defer c.Clear()

	out, err := listener.Dispatch(ctx, r.messages.Listeners(), c, typ)
	if err != nil {
		r.log.Error("Message dispatch failed",
			zap.String("user", msg.Author.ID),
			zap.String("channel", msg.ChannelID),
			zap.String("content", msg.Content),
			zap.Error(err))
		return listener.Outcome{}, err
	}

	if out.Handled == 0 {
		if text, ok := c.CommandText(); ok {
			r.log.Error(fmt.Sprintf("%d handlers registered, but this wasn't one", r.messages.Len()),
				zap.String("user", msg.Author.ID),
				zap.String("command", text))
		}
	}

	r.logOutcome("message", msg.ID, out)
	return out, nil
}

// HandleReaction dispatches a reaction add or remove made by user. When
// user is nil only the id from the event is known, so the bot's own
// reactions are recognized by id.
func (r *Router) HandleReaction(ctx context.Context, reaction *discordgo.MessageReaction, user *discordgo.User, typ listener.EventType) (listener.Outcome, error) {
	if reaction == nil {
		return listener.Outcome{}, nil
	}
	if user == nil {
		user = &discordgo.User{ID: reaction.UserID}
	}
	if r.isOwnUser(user.ID) || IsIgnoredBot(user, r.testBotID) {
		return listener.Outcome{}, nil
	}

	c, err := sage.NewReaction(ctx, r.env, r.BotID(), reaction, user, typ)
	if err != nil {
		r.log.Error("Failed to build reaction context", zap.String("message", reaction.MessageID), zap.Error(err))
		return listener.Outcome{}, err
	}
	defer c.Clear()

	out, err := listener.Dispatch(ctx, r.reactions.Listeners(), c, typ)
	if err != nil {
		r.log.Error("Reaction dispatch failed",
			zap.String("user", user.ID),
			zap.String("message", reaction.MessageID),
			zap.String("emoji", c.Emoji()),
			zap.Error(err))
		return listener.Outcome{}, err
	}

	r.logOutcome("reaction", reaction.MessageID, out)
	return out, nil
}

func (r *Router) isOwnUser(id string) bool {
	botID := r.BotID()
	return botID != "" && id == botID
}

func (r *Router) logOutcome(family, id string, out listener.Outcome) {
	r.log.Debug("Dispatch done",
		zap.String("family", family),
		zap.String("id", id),
		zap.Int("tested", out.Tested),
		zap.Int("handled", out.Handled))
}
