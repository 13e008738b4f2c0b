// Package commands registers Sage's built-in listeners on a router.
package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/prompt"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/keshon/rpg-sage/internal/storage"
	"go.uber.org/zap"
)

const (
	EmbedColor = 0x5865F2

	DismissID    = "sage-dismiss"
	DeleteEmoji  = "❌"
	ConfirmEmoji = "✅"
	CancelEmoji  = "🚫"
)

// Store is the part of storage.Storage the commands write to.
type Store interface {
	CreateGame(game storage.Game) error
	SaveGame(game *storage.Game) error
	ArchiveGame(guildID, channelID string) error
	ListGames(guildID string) ([]storage.Game, error)
	AppendCommandToHistory(guildID string, record storage.CommandHistoryRecord) error
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
}

// Deps are shared by every built-in command.
type Deps struct {
	Store    Store
	Prompter *prompt.Prompter
	Log      *zap.Logger
}

// Register adds the built-in listeners to r. It must run after the router
// knows the bot id.
func Register(r *router.Router, deps Deps) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	registerPing(r, deps)
	registerHelp(r, deps)
	registerGames(r, deps)
	registerHistory(r, deps)
	registerReactions(r, deps)

	deps.Log.Info("Registered listeners",
		zap.Int("interactions", r.Count(listener.InteractionListener)),
		zap.Int("messages", r.Count(listener.MessageListener)),
		zap.Int("reactions", r.Count(listener.ReactionListener)))
}

func dismissRow() discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Dismiss", Style: discordgo.SecondaryButton, CustomID: DismissID},
	}}
}
