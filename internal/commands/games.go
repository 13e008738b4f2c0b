package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/prompt"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/keshon/rpg-sage/internal/sage"
	"github.com/keshon/rpg-sage/internal/storage"
)

func registerGames(r *router.Router, deps Deps) {
	guildOnly := WithGuildOnly[*sage.Message]()
	history := WithHistory[*sage.Message](deps.Store, deps.Log)

	r.RegisterMessageListener(
		listener.WrapTester(router.MessageCommand("game-create"), guildOnly),
		listener.WrapHandler(createGame(deps), history),
		listener.Options{Command: "game-create"},
	)
	r.RegisterMessageListener(
		router.MessageCommand("game-details"),
		gameDetails,
		listener.Options{Command: "game-details", Permissions: discordgo.PermissionEmbedLinks},
	)
	r.RegisterMessageListener(
		listener.WrapTester(router.MessageCommand("game-archive"), guildOnly),
		listener.WrapHandler(archiveGame(deps), history),
		listener.Options{Command: "game-archive", Permissions: discordgo.PermissionAddReactions},
	)
	r.RegisterMessageListener(
		listener.WrapTester(router.MessageCommand("game-join"), guildOnly),
		listener.WrapHandler(joinGame(deps), history),
		listener.Options{Command: "game-join"},
	)
	r.RegisterMessageListener(
		listener.WrapTester(router.MessageCommand("game-leave"), guildOnly),
		listener.WrapHandler(leaveGame(deps), history),
		listener.Options{Command: "game-leave"},
	)
	r.RegisterMessageListener(
		listener.WrapTester(router.MessageCommand("game-list"), guildOnly),
		listGames(deps),
		listener.Options{Command: "game-list"},
	)
}

// createGame handles: !game-create name="Curse of Strahd" system=pf2e
func createGame(deps Deps) listener.Handler[*sage.Message] {
	return func(_ context.Context, m *sage.Message, match *listener.Match) error {
		name, _ := match.Args.ValueByKey("name")
		if name == "" {
			name = strings.Join(match.Args.UnkeyedValues(), " ")
		}
		if name == "" {
			_, err := m.Reply(`Usage: !game-create name="Game Name" system=dnd5e`)
			return err
		}
		system, _ := match.Args.ValueByKey("system")

		err := deps.Store.CreateGame(storage.Game{
			Name:      name,
			System:    system,
			GuildID:   m.GuildID(),
			ChannelID: m.ChannelID(),
			GMID:      m.ActorID(),
		})
		if errors.Is(err, storage.ErrGameExists) {
			_, err = m.Reply("This channel already has a game.")
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}
		_, err = m.Reply(fmt.Sprintf("Created **%s**. <@%s> is the GM.", name, m.ActorID()))
		return err
	}
}

func gameDetails(_ context.Context, m *sage.Message, _ *listener.Match) error {
	game := m.Game()
	if game == nil {
		_, err := m.Reply("No game in this channel.")
		return err
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "GM", Value: fmt.Sprintf("<@%s>", game.GMID), Inline: true},
	}
	if game.System != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "System", Value: game.System, Inline: true})
	}
	if len(game.Players) > 0 {
		players := make([]string, len(game.Players))
		for i, p := range game.Players {
			players[i] = fmt.Sprintf("<@%s>", p)
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Players", Value: strings.Join(players, ", ")})
	}

	_, err := m.SendComplex(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:  game.Name,
			Color:  EmbedColor,
			Fields: fields,
		}},
		Reference: m.Msg.Reference(),
	})
	return err
}

func archiveGame(deps Deps) listener.Handler[*sage.Message] {
	return func(ctx context.Context, m *sage.Message, _ *listener.Match) error {
		game := m.Game()
		if game == nil {
			_, err := m.Reply("No game in this channel.")
			return err
		}
		if !m.IsGameMaster() {
			_, err := m.Reply("Only the GM can archive this game.")
			return err
		}

		answer, err := deps.Prompter.AskReaction(ctx, m.ChannelID(), m.ActorID(),
			fmt.Sprintf("Archive **%s**?", game.Name), []string{ConfirmEmoji, CancelEmoji})
		switch {
		case errors.Is(err, prompt.ErrNoAnswer):
			_, err = m.Reply("No answer, the game stays active.")
			return err
		case err != nil:
			return err
		case answer != ConfirmEmoji:
			_, err = m.Reply("Archive canceled.")
			return err
		}

		if err := deps.Store.ArchiveGame(m.GuildID(), m.ChannelID()); err != nil {
			return fmt.Errorf("failed to archive game: %w", err)
		}
		_, err = m.Reply(fmt.Sprintf("**%s** archived.", game.Name))
		return err
	}
}

func joinGame(deps Deps) listener.Handler[*sage.Message] {
	return func(_ context.Context, m *sage.Message, _ *listener.Match) error {
		game := m.Game()
		if game == nil {
			_, err := m.Reply("No game in this channel.")
			return err
		}
		if m.IsGameMaster() {
			_, err := m.Reply(fmt.Sprintf("You are the GM of **%s**.", game.Name))
			return err
		}
		if game.HasPlayer(m.ActorID()) {
			_, err := m.Reply(fmt.Sprintf("You already play in **%s**.", game.Name))
			return err
		}

		updated := *game
		updated.Players = append(slices.Clone(game.Players), m.ActorID())
		if err := deps.Store.SaveGame(&updated); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}
		_, err := m.Reply(fmt.Sprintf("<@%s> joined **%s**.", m.ActorID(), game.Name))
		return err
	}
}

func leaveGame(deps Deps) listener.Handler[*sage.Message] {
	return func(_ context.Context, m *sage.Message, _ *listener.Match) error {
		game := m.Game()
		if game == nil {
			_, err := m.Reply("No game in this channel.")
			return err
		}
		if !game.HasPlayer(m.ActorID()) {
			_, err := m.Reply(fmt.Sprintf("You are not in **%s**.", game.Name))
			return err
		}

		updated := *game
		updated.Players = slices.DeleteFunc(slices.Clone(game.Players), func(id string) bool { return id == m.ActorID() })
		if err := deps.Store.SaveGame(&updated); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}
		_, err := m.Reply(fmt.Sprintf("<@%s> left **%s**.", m.ActorID(), game.Name))
		return err
	}
}

func listGames(deps Deps) listener.Handler[*sage.Message] {
	return func(_ context.Context, m *sage.Message, _ *listener.Match) error {
		games, err := deps.Store.ListGames(m.GuildID())
		if err != nil {
			return fmt.Errorf("failed to list games: %w", err)
		}
		var sb strings.Builder
		for _, g := range games {
			if g.Archived {
				continue
			}
			fmt.Fprintf(&sb, "**%s** in <#%s>\n", g.Name, g.ChannelID)
		}
		if sb.Len() == 0 {
			_, err = m.Reply("No active games.")
			return err
		}
		_, err = m.Reply(sb.String())
		return err
	}
}
