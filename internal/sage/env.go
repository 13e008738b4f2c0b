// Package sage wraps Discord events into the command contexts that
// listeners test and handle.
package sage

import (
	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/storage"
)

// Session is the part of *discordgo.Session the contexts talk to.
type Session interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	AddHandler(handler interface{}) func()
}

// GameStore resolves the game bound to a channel.
type GameStore interface {
	GameByChannel(guildID, channelID string) (*storage.Game, error)
}

// Env is the process-wide state every context is built from.
type Env struct {
	Session Session
	Games   GameStore
	// Prefix may precede the "!" of a message command, e.g. "sage!roll".
	Prefix string
}
