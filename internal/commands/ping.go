package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/keshon/rpg-sage/internal/sage"
)

func registerPing(r *router.Router, _ Deps) {
	r.RegisterMessageListener(router.MessageCommand("ping"),
		func(_ context.Context, m *sage.Message, _ *listener.Match) error {
			_, err := m.Reply("Pong!")
			return err
		},
		listener.Options{Command: "ping", Permissions: discordgo.PermissionSendMessages},
	)

	r.RegisterInteractionListener(router.SlashCommand("ping"),
		func(_ context.Context, in *sage.Interaction, _ *listener.Match) error {
			return in.RespondEphemeral("Pong!")
		},
		listener.Options{
			Command: "ping",
			Definition: &discordgo.ApplicationCommand{
				Name:        "ping",
				Description: "Check that Sage is listening",
				Type:        discordgo.ChatApplicationCommand,
			},
		},
	)
}
