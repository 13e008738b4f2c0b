// Package router owns the three listener registries and turns raw Discord
// events into dispatches over them.
package router

import (
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/sage"
	"go.uber.org/zap"
)

// Router is built once at startup and shared with the session bindings.
// Listeners are registered during startup; dispatch only reads them.
type Router struct {
	log       *zap.Logger
	env       *sage.Env
	testBotID string
	botID     atomic.Pointer[string]

	interactions *listener.Registry[*sage.Interaction]
	messages     *listener.Registry[*sage.Message]
	reactions    *listener.Registry[*sage.Reaction]
}

// Option configures a Router.
type Option func(*Router)

// WithTestBotID lets messages and reactions from the given bot through the
// bot filter.
func WithTestBotID(id string) Option {
	return func(r *Router) { r.testBotID = id }
}

// New returns a Router with empty registries.
func New(env *sage.Env, log *zap.Logger, opts ...Option) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		log:          log,
		env:          env,
		interactions: listener.NewRegistry[*sage.Interaction](listener.InteractionListener, log),
		messages:     listener.NewRegistry[*sage.Message](listener.MessageListener, log),
		reactions:    listener.NewRegistry[*sage.Reaction](listener.ReactionListener, log),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetBotID records the bot's own user id. Listeners should be registered
// after it is set.
func (r *Router) SetBotID(id string) {
	r.botID.Store(&id)
}

// BotID returns the id given to SetBotID, or "".
func (r *Router) BotID() string {
	if p := r.botID.Load(); p != nil {
		return *p
	}
	return ""
}

func (r *Router) checkBotID(which listener.Which, command string) {
	if r.BotID() == "" {
		r.log.Error("Registering listener before bot id is set",
			zap.Stringer("which", which), zap.String("command", command))
	}
}

// RegisterInteractionListener adds a listener for slash commands, context
// menus, components and modals.
func (r *Router) RegisterInteractionListener(tester listener.Tester[*sage.Interaction], handler listener.Handler[*sage.Interaction], opts listener.Options) *listener.Listener[*sage.Interaction] {
	r.checkBotID(listener.InteractionListener, opts.Command)
	return r.interactions.Register(tester, handler, opts)
}

// RegisterMessageListener adds a listener for messages. Type defaults to
// listener.MessagePost.
func (r *Router) RegisterMessageListener(tester listener.Tester[*sage.Message], handler listener.Handler[*sage.Message], opts listener.Options) *listener.Listener[*sage.Message] {
	r.checkBotID(listener.MessageListener, opts.Command)
	if opts.Type == 0 {
		opts.Type = listener.MessagePost
	}
	return r.messages.Register(tester, handler, opts)
}

// RegisterReactionListener adds a listener for reactions. Type defaults to
// listener.ReactionAdd.
func (r *Router) RegisterReactionListener(tester listener.Tester[*sage.Reaction], handler listener.Handler[*sage.Reaction], opts listener.Options) *listener.Listener[*sage.Reaction] {
	r.checkBotID(listener.ReactionListener, opts.Command)
	if opts.Type == 0 {
		opts.Type = listener.ReactionAdd
	}
	return r.reactions.Register(tester, handler, opts)
}

// Count returns how many listeners a family has.
func (r *Router) Count(which listener.Which) int {
	switch which {
	case listener.InteractionListener:
		return r.interactions.Len()
	case listener.MessageListener:
		return r.messages.Len()
	case listener.ReactionListener:
		return r.reactions.Len()
	default:
		return 0
	}
}

// MessageCommands lists message commands in dispatch order.
func (r *Router) MessageCommands() []string {
	var out []string
	for _, l := range r.messages.Listeners() {
		if l.Command != "" {
			out = append(out, l.Command)
		}
	}
	return out
}

// Intents returns the gateway intents the registered listeners need.
func (r *Router) Intents() discordgo.Intent {
	intents := discordgo.IntentGuilds
	if r.messages.Len() > 0 {
		intents |= discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent
	}
	if r.reactions.Len() > 0 {
		intents |= discordgo.IntentGuildMessageReactions | discordgo.IntentDirectMessageReactions
	}
	for _, l := range r.interactions.Listeners() {
		intents |= l.Intents
	}
	for _, l := range r.messages.Listeners() {
		intents |= l.Intents
	}
	for _, l := range r.reactions.Listeners() {
		intents |= l.Intents
	}
	return intents
}

// Permissions returns the union of permissions listeners asked for.
func (r *Router) Permissions() int64 {
	var perms int64
	for _, l := range r.interactions.Listeners() {
		perms |= l.Permissions
	}
	for _, l := range r.messages.Listeners() {
		perms |= l.Permissions
	}
	for _, l := range r.reactions.Listeners() {
		perms |= l.Permissions
	}
	return perms
}

// ApplicationCommands returns copies of the slash and context-menu
// definitions to sync, one per name.
func (r *Router) ApplicationCommands() []*discordgo.ApplicationCommand {
	seen := map[string]bool{}
	var out []*discordgo.ApplicationCommand
	for _, l := range r.interactions.Listeners() {
		if l.Definition == nil || seen[l.Definition.Name] {
			continue
		}
		seen[l.Definition.Name] = true
		def := *l.Definition
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		out = append(out, &def)
	}
	return out
}
