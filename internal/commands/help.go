package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/keshon/rpg-sage/internal/sage"
)

func registerHelp(r *router.Router, _ Deps) {
	r.RegisterMessageListener(router.MessageCommand("help"),
		func(_ context.Context, m *sage.Message, _ *listener.Match) error {
			_, err := m.SendComplex(&discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{{
					Title:       "Sage Help",
					Description: helpText(r.MessageCommands()),
					Color:       EmbedColor,
				}},
				Components: []discordgo.MessageComponent{dismissRow()},
				Reference:  m.Msg.Reference(),
			})
			return err
		},
		listener.Options{Command: "help", Permissions: discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks},
	)

	r.RegisterInteractionListener(router.Component(DismissID),
		func(_ context.Context, in *sage.Interaction, _ *listener.Match) error {
			if err := in.DeferUpdate(); err != nil {
				return err
			}
			if in.Raw.Message == nil {
				return nil
			}
			return in.Session().ChannelMessageDelete(in.ChannelID(), in.Raw.Message.ID)
		},
		listener.Options{Command: "dismiss", Permissions: discordgo.PermissionManageMessages},
	)
}

func helpText(commands []string) string {
	if len(commands) == 0 {
		return "No commands registered."
	}
	var sb strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&sb, "`!%s`\n", c)
	}
	return sb.String()
}
