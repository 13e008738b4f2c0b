// Package discord binds a discordgo session to the router.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/config"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// messageCacheSize is how many messages per channel the state keeps so
// edits arrive with the previous version.
const messageCacheSize = 200

// RegisterFunc adds listeners to the router once the bot id is known.
type RegisterFunc func(r *router.Router)

// Bot owns the gateway session and feeds its events to the router.
type Bot struct {
	cfg      *config.Config
	log      *zap.Logger
	session  *discordgo.Session
	router   *router.Router
	register RegisterFunc
	syncer   *commandSyncer

	registerOnce sync.Once
	inflight     conc.WaitGroup

	mu  sync.RWMutex
	ctx context.Context
}

// NewSession creates the discordgo session the router and bot share.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.State.MaxMessageCount = messageCacheSize
	return s, nil
}

// New returns a Bot. hashes records synced slash commands per guild.
func New(cfg *config.Config, session *discordgo.Session, r *router.Router, hashes HashStore, register RegisterFunc, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bot{
		cfg:      cfg,
		log:      log,
		session:  session,
		router:   r,
		register: register,
		ctx:      context.Background(),
	}
	if session != nil {
		b.syncer = &commandSyncer{
			api:     session,
			hashes:  hashes,
			limiter: rate.NewLimiter(rate.Every(time.Second/40), 1),
			log:     log,
		}
	}
	return b
}

// Run resolves the bot user, registers listeners, opens the gateway and
// blocks until ctx ends. In-flight dispatches are drained before it returns.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to fetch bot user: %w", err)
	}
	b.router.SetBotID(me.ID)
	b.registerListeners()

	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.session.Identify.Intents = b.router.Intents()
	b.bind()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	b.log.Info("Shutdown signal received, closing session")
	if err := b.session.Close(); err != nil {
		b.log.Warn("Failed to close session", zap.Error(err))
	}
	b.Wait()
	return nil
}

// Wait blocks until every dispatched event has finished.
func (b *Bot) Wait() {
	b.inflight.Wait()
}

func (b *Bot) registerListeners() {
	b.registerOnce.Do(func() {
		if b.register != nil {
			b.register(b.router)
		}
	})
}

func (b *Bot) bind() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onMessageReactionAdd)
	b.session.AddHandler(b.onMessageReactionRemove)
	b.session.AddHandler(b.onInteractionCreate)
}

func (b *Bot) dispatchContext() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

// dispatch runs fn on its own goroutine so a slow handler, such as one
// waiting on a prompt, does not hold up the gateway.
func (b *Bot) dispatch(fn func(ctx context.Context) (listener.Outcome, error)) {
	ctx := b.dispatchContext()
	b.inflight.Go(func() {
		// Errors are logged by the router.
		_, _ = fn(ctx)
	})
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.router.SetBotID(r.User.ID)
	b.registerListeners()

	for _, g := range r.Guilds {
		b.joinGuild(s, g.ID, g.Name)
	}

	b.log.Info("Discord bot is running",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
		zap.String("invite", InviteURL(r.User.ID, b.router.Permissions())))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.joinGuild(s, g.ID, g.Name)
}

// joinGuild leaves blacklisted guilds and syncs commands to the rest.
func (b *Bot) joinGuild(s *discordgo.Session, guildID, name string) {
	if b.cfg.IsGuildBlacklisted(guildID) {
		b.log.Info("Leaving blacklisted guild", zap.String("guild", guildID), zap.String("name", name))
		if err := s.GuildLeave(guildID); err != nil {
			b.log.Error("Failed to leave guild", zap.String("guild", guildID), zap.Error(err))
		}
		return
	}
	if !b.cfg.InitSlashCommands || b.syncer == nil {
		return
	}

	ctx := b.dispatchContext()
	appID := b.router.BotID()
	cmds := b.router.ApplicationCommands()
	b.inflight.Go(func() {
		res, err := b.syncer.sync(ctx, appID, guildID, cmds)
		if err != nil {
			b.log.Error("Failed to sync slash commands", zap.String("guild", guildID), zap.Error(err))
			return
		}
		if len(res.Created) > 0 || len(res.Deleted) > 0 {
			b.log.Info("Synced slash commands",
				zap.String("guild", guildID),
				zap.Strings("created", res.Created),
				zap.Strings("deleted", res.Deleted))
		}
	})
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil {
		return
	}
	b.dispatch(func(ctx context.Context) (listener.Outcome, error) {
		return b.router.HandleMessage(ctx, m.Message, nil, listener.MessagePost)
	})
}

func (b *Bot) onMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil {
		return
	}
	msg, prev := m.Message, m.BeforeUpdate
	// Partial updates (embeds resolving) can arrive without an author.
	if msg.Author == nil && prev != nil {
		merged := *msg
		merged.Author = prev.Author
		msg = &merged
	}
	b.dispatch(func(ctx context.Context) (listener.Outcome, error) {
		return b.router.HandleMessage(ctx, msg, prev, listener.MessageEdit)
	})
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil {
		return
	}
	user := reactionUser(s, r.MessageReaction, r.Member)
	b.dispatch(func(ctx context.Context) (listener.Outcome, error) {
		return b.router.HandleReaction(ctx, r.MessageReaction, user, listener.ReactionAdd)
	})
}

func (b *Bot) onMessageReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.MessageReaction == nil {
		return
	}
	user := reactionUser(s, r.MessageReaction, nil)
	b.dispatch(func(ctx context.Context) (listener.Outcome, error) {
		return b.router.HandleReaction(ctx, r.MessageReaction, user, listener.ReactionRemove)
	})
}

// reactionUser finds the reacting user from the event's member or the
// state's member cache. Removes and DM adds carry only the user id, so the
// result may be nil.
func reactionUser(s *discordgo.Session, r *discordgo.MessageReaction, member *discordgo.Member) *discordgo.User {
	if member != nil && member.User != nil {
		return member.User
	}
	if s == nil || s.State == nil || r.GuildID == "" {
		return nil
	}
	if m, err := s.State.Member(r.GuildID, r.UserID); err == nil && m.User != nil {
		return m.User
	}
	return nil
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Interaction == nil {
		return
	}
	b.dispatch(func(ctx context.Context) (listener.Outcome, error) {
		return b.router.HandleInteraction(ctx, i.Interaction)
	})
}

// InviteURL is the OAuth2 link that adds the bot with perms.
func InviteURL(appID string, perms int64) string {
	return fmt.Sprintf("https://discord.com/oauth2/authorize?client_id=%s&scope=bot%%20applications.commands&permissions=%d", appID, perms)
}
