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

func registerHistory(r *router.Router, deps Deps) {
	r.RegisterMessageListener(
		listener.WrapTester(router.MessageCommand("history"), WithGuildOnly[*sage.Message]()),
		func(_ context.Context, m *sage.Message, _ *listener.Match) error {
			records, err := deps.Store.FetchCommandHistory(m.GuildID())
			if err != nil {
				return fmt.Errorf("failed to fetch command history: %w", err)
			}
			if len(records) == 0 {
				_, err = m.Reply("No commands recorded yet.")
				return err
			}

			var sb strings.Builder
			for i := len(records) - 1; i >= 0; i-- {
				rec := records[i]
				fmt.Fprintf(&sb, "`%s` **%s** `!%s %s` in <#%s>\n",
					rec.Datetime.Format("2006-01-02 15:04"), rec.Username, rec.Command, rec.Param, rec.ChannelID)
			}
			_, err = m.SendComplex(&discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{{
					Title:       "Command history",
					Description: sb.String(),
					Color:       EmbedColor,
				}},
				Components: []discordgo.MessageComponent{dismissRow()},
			})
			return err
		},
		listener.Options{Command: "history", Permissions: discordgo.PermissionEmbedLinks},
	)
}
