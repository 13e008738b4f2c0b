package sage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/args"
	"github.com/keshon/rpg-sage/internal/storage"
)

// cache is shared by a context and all of its clones for one event.
type cache struct {
	mu      sync.Mutex
	values  map[string]any
	cleared bool
}

// base is the state common to the three context kinds. Clones share the
// resolved event state and cache but get their own command/args slot.
type base struct {
	env       *Env
	botID     string
	guildID   string
	channelID string
	actor     *discordgo.User
	game      *storage.Game
	cache     *cache

	command string
	args    *args.Manager
}

func newBase(ctx context.Context, env *Env, botID, guildID, channelID string, actor *discordgo.User) (base, error) {
	b := base{
		env:       env,
		botID:     botID,
		guildID:   guildID,
		channelID: channelID,
		actor:     actor,
		cache:     &cache{values: map[string]any{}},
	}
	if err := ctx.Err(); err != nil {
		return b, err
	}
	if env.Games != nil && channelID != "" {
		game, err := env.Games.GameByChannel(guildID, channelID)
		switch {
		case errors.Is(err, storage.ErrGameNotFound):
		case err != nil:
			return b, fmt.Errorf("failed to resolve game: %w", err)
		default:
			b.game = game
		}
	}
	return b, nil
}

func (b base) clone() base {
	b.command = ""
	b.args = nil
	return b
}

func (b *base) Env() *Env              { return b.env }
func (b *base) Session() Session       { return b.env.Session }
func (b *base) BotID() string          { return b.botID }
func (b *base) GuildID() string        { return b.guildID }
func (b *base) ChannelID() string      { return b.channelID }
func (b *base) IsDM() bool             { return b.guildID == "" }
func (b *base) Actor() *discordgo.User { return b.actor }
func (b *base) Game() *storage.Game    { return b.game }

// ActorID returns the id of the user behind the event, or "".
func (b *base) ActorID() string {
	if b.actor == nil {
		return ""
	}
	return b.actor.ID
}

// IsGameMaster reports whether the actor runs this channel's game.
func (b *base) IsGameMaster() bool {
	return b.game != nil && b.game.IsGameMaster(b.ActorID())
}

// Command returns the command set by a tester, if any.
func (b *base) Command() string { return b.command }

// Args returns the arguments set by a tester, if any.
func (b *base) Args() *args.Manager { return b.args }

// SetCommandAndArgs records what a tester matched.
func (b *base) SetCommandAndArgs(command string, a *args.Manager) {
	b.command = command
	b.args = a
}

// Cached returns the value stored under key, computing it with load on the
// first call for this event.
func (b *base) Cached(key string, load func() (any, error)) (any, error) {
	b.cache.mu.Lock()
	defer b.cache.mu.Unlock()
	if v, ok := b.cache.values[key]; ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	if !b.cache.cleared {
		b.cache.values[key] = v
	}
	return v, nil
}

// Clear drops the per-event caches. Safe to call more than once.
func (b *base) Clear() {
	b.cache.mu.Lock()
	defer b.cache.mu.Unlock()
	b.cache.values = map[string]any{}
	b.cache.cleared = true
}

// Cleared reports whether Clear ran.
func (b *base) Cleared() bool {
	b.cache.mu.Lock()
	defer b.cache.mu.Unlock()
	return b.cache.cleared
}
