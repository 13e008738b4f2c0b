package router

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/sage"
)

// IsIgnoredBot reports whether events from user should be dropped: any bot
// except the allow-listed test bot.
func IsIgnoredBot(user *discordgo.User, testBotID string) bool {
	if user == nil || !user.Bot {
		return false
	}
	return testBotID == "" || user.ID != testBotID
}

// IsEditWeCanIgnore detects the edit Discord makes when it attaches a link
// preview: the content is unchanged, there is one more embed, and the new
// embed's URL already appeared in the content. A quoted link can come back
// with a trailing %22, which is stripped before comparing.
func IsEditWeCanIgnore(msg, prev *discordgo.Message) bool {
	if msg == nil || prev == nil {
		return false
	}
	if msg.Content != prev.Content || len(msg.Embeds) <= len(prev.Embeds) {
		return false
	}
	embed := msg.Embeds[len(msg.Embeds)-1]
	if embed == nil || embed.URL == "" {
		return false
	}
	url := embed.URL
	if strings.Contains(prev.Content, url) {
		return true
	}
	if trimmed, ok := strings.CutSuffix(url, "%22"); ok && trimmed != "" {
		return strings.Contains(prev.Content, trimmed)
	}
	return false
}

// IsSupportedInteraction reports whether i is one of the interaction kinds
// listeners can handle.
func IsSupportedInteraction(i *discordgo.Interaction) bool {
	return sage.KindOf(i) != sage.KindUnsupported
}
