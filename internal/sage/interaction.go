package sage

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// InteractionKind classifies the interactions the router accepts.
type InteractionKind int

const (
	KindUnsupported InteractionKind = iota
	KindButton
	KindSelectMenu
	KindSlashCommand
	KindContextMenu
	KindModal
)

func (k InteractionKind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindSelectMenu:
		return "select-menu"
	case KindSlashCommand:
		return "slash-command"
	case KindContextMenu:
		return "context-menu"
	case KindModal:
		return "modal"
	default:
		return "unsupported"
	}
}

// KindOf classifies i. Pings, autocomplete requests and interactions
// whose data does not match their type are unsupported.
func KindOf(i *discordgo.Interaction) InteractionKind {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
		if !ok {
			return KindUnsupported
		}
		switch data.CommandType {
		case discordgo.UserApplicationCommand, discordgo.MessageApplicationCommand:
			return KindContextMenu
		default:
			return KindSlashCommand
		}
	case discordgo.InteractionMessageComponent:
		data, ok := i.Data.(discordgo.MessageComponentInteractionData)
		if !ok {
			return KindUnsupported
		}
		switch data.ComponentType {
		case discordgo.ButtonComponent:
			return KindButton
		case discordgo.SelectMenuComponent,
			discordgo.UserSelectMenuComponent,
			discordgo.RoleSelectMenuComponent,
			discordgo.MentionableSelectMenuComponent,
			discordgo.ChannelSelectMenuComponent:
			return KindSelectMenu
		default:
			return KindUnsupported
		}
	case discordgo.InteractionModalSubmit:
		if _, ok := i.Data.(discordgo.ModalSubmitInteractionData); !ok {
			return KindUnsupported
		}
		return KindModal
	default:
		return KindUnsupported
	}
}

// InteractionUser returns the user behind i in guilds and DMs.
func InteractionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// Interaction is the context for a slash command, context menu, component
// or modal submit.
type Interaction struct {
	base

	Raw  *discordgo.Interaction
	Kind InteractionKind
}

// NewInteraction wraps i and resolves the channel's game.
func NewInteraction(ctx context.Context, env *Env, botID string, i *discordgo.Interaction) (*Interaction, error) {
	b, err := newBase(ctx, env, botID, i.GuildID, i.ChannelID, InteractionUser(i))
	if err != nil {
		return nil, err
	}
	return &Interaction{base: b, Raw: i, Kind: KindOf(i)}, nil
}

// Clone implements listener.Context.
func (in *Interaction) Clone() *Interaction {
	c := *in
	c.base = in.base.clone()
	return &c
}

// Name returns the command name for commands and the custom id for
// components and modals.
func (in *Interaction) Name() string {
	switch in.Kind {
	case KindSlashCommand, KindContextMenu:
		return in.Raw.ApplicationCommandData().Name
	case KindButton, KindSelectMenu:
		return in.Raw.MessageComponentData().CustomID
	case KindModal:
		return in.Raw.ModalSubmitData().CustomID
	default:
		return ""
	}
}

// Values returns the selected values of a select menu.
func (in *Interaction) Values() []string {
	if in.Kind != KindSelectMenu {
		return nil
	}
	return in.Raw.MessageComponentData().Values
}

// Subcommand returns the first subcommand name of a slash command.
func (in *Interaction) Subcommand() string {
	if in.Kind != KindSlashCommand {
		return ""
	}
	for _, o := range in.Raw.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand || o.Type == discordgo.ApplicationCommandOptionSubCommandGroup {
			return o.Name
		}
	}
	return ""
}

// option finds a named option, descending into subcommands.
func (in *Interaction) option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if in.Kind != KindSlashCommand && in.Kind != KindContextMenu {
		return nil
	}
	return findOption(in.Raw.ApplicationCommandData().Options, name)
}

func findOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range opts {
		if o.Name == name && o.Type != discordgo.ApplicationCommandOptionSubCommand && o.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			return o
		}
		if found := findOption(o.Options, name); found != nil {
			return found
		}
	}
	return nil
}

// OptionString returns a string option; ok is false if it was not given.
func (in *Interaction) OptionString(name string) (string, bool) {
	o := in.option(name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return o.StringValue(), true
}

// OptionInt returns an integer option.
func (in *Interaction) OptionInt(name string) (int64, bool) {
	o := in.option(name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false
	}
	return o.IntValue(), true
}

// OptionBool returns a boolean option.
func (in *Interaction) OptionBool(name string) (bool, bool) {
	o := in.option(name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionBoolean {
		return false, false
	}
	return o.BoolValue(), true
}

// Respond answers the interaction with a visible message.
func (in *Interaction) Respond(content string) error {
	return in.RespondComplex(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// RespondEphemeral answers with a message only the actor sees.
func (in *Interaction) RespondEphemeral(content string) error {
	return in.RespondComplex(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// RespondComplex sends resp as the interaction response.
func (in *Interaction) RespondComplex(resp *discordgo.InteractionResponse) error {
	return in.Session().InteractionRespond(in.Raw, resp)
}

// DeferUpdate acknowledges a component without changing its message.
func (in *Interaction) DeferUpdate() error {
	return in.RespondComplex(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}
