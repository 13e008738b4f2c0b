package discord

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// commandShape is the part of an application command Discord compares.
// IDs, versions and localizations are left out.
type commandShape struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description"`
	Type        discordgo.ApplicationCommandType `json:"type"`
	Options     []optionShape                    `json:"options,omitempty"`
}

type optionShape struct {
	Name        string                                 `json:"name"`
	Description string                                 `json:"description"`
	Type        discordgo.ApplicationCommandOptionType `json:"type"`
	Required    bool                                   `json:"required"`
	Choices     []choiceShape                          `json:"choices,omitempty"`
	Options     []optionShape                          `json:"options,omitempty"`
}

type choiceShape struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// hashCommand returns a hash that changes only when the definition Discord
// sees changes. Option order does not matter.
func hashCommand(cmd *discordgo.ApplicationCommand) (string, error) {
	shape := commandShape{
		Name:        cmd.Name,
		Description: cmd.Description,
		Type:        cmd.Type,
		Options:     shapeOptions(cmd.Options),
	}
	data, err := json.Marshal(shape)
	if err != nil {
		return "", fmt.Errorf("failed to hash command %s: %w", cmd.Name, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func shapeOptions(opts []*discordgo.ApplicationCommandOption) []optionShape {
	if len(opts) == 0 {
		return nil
	}
	out := make([]optionShape, len(opts))
	for i, o := range opts {
		s := optionShape{
			Name:        o.Name,
			Description: o.Description,
			Type:        o.Type,
			Required:    o.Required,
			Options:     shapeOptions(o.Options),
		}
		for _, c := range o.Choices {
			s.Choices = append(s.Choices, choiceShape{Name: c.Name, Value: c.Value})
		}
		out[i] = s
	}
	slices.SortFunc(out, func(a, b optionShape) int { return strings.Compare(a.Name, b.Name) })
	return out
}
