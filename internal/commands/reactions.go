package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/keshon/rpg-sage/internal/sage"
)

func registerReactions(r *router.Router, _ Deps) {
	r.RegisterReactionListener(deleteTester,
		func(_ context.Context, c *sage.Reaction, _ *listener.Match) error {
			return c.DeleteMessage()
		},
		listener.Options{
			Command:     "delete-reaction",
			Type:        listener.ReactionAdd,
			Permissions: discordgo.PermissionManageMessages,
		},
	)
}

// deleteTester matches a ❌ added to one of the bot's own messages.
func deleteTester(ctx context.Context, c *sage.Reaction) (*listener.Match, error) {
	match, err := router.ReactionEmoji("delete-reaction", DeleteEmoji)(ctx, c)
	if match == nil || err != nil {
		return nil, err
	}
	onBot, err := c.IsOnBotMessage()
	if err != nil {
		return nil, err
	}
	if !onBot {
		return nil, nil
	}
	return match, nil
}
