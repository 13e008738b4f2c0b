package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/args"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/storage"
	"go.uber.org/zap"
)

// scoped is what middlewares need from any of the sage contexts.
type scoped interface {
	IsDM() bool
	GuildID() string
	ChannelID() string
	Actor() *discordgo.User
	Command() string
	Args() *args.Manager
}

// WithGuildOnly makes the tester ignore direct messages.
func WithGuildOnly[C scoped]() listener.TesterMiddleware[C] {
	return func(next listener.Tester[C]) listener.Tester[C] {
		return func(ctx context.Context, c C) (*listener.Match, error) {
			if c.IsDM() {
				return nil, nil
			}
			return next(ctx, c)
		}
	}
}

// WithHistory records every handled command in the guild's history. A
// failed write is logged and does not fail the command.
func WithHistory[C scoped](store Store, log *zap.Logger) listener.HandlerMiddleware[C] {
	return func(next listener.Handler[C]) listener.Handler[C] {
		return func(ctx context.Context, c C, m *listener.Match) error {
			err := next(ctx, c, m)

			record := historyRecord(c, m)
			if e := store.AppendCommandToHistory(c.GuildID(), record); e != nil {
				log.Warn("Failed to log command", zap.String("command", record.Command), zap.Error(e))
			}
			return err
		}
	}
}

func historyRecord[C scoped](c C, m *listener.Match) storage.CommandHistoryRecord {
	command := c.Command()
	if command == "" && m != nil {
		command = m.Command
	}
	var param string
	if a := c.Args(); a != nil {
		param = a.String()
	} else if m != nil && m.Args != nil {
		param = m.Args.String()
	}
	r := storage.CommandHistoryRecord{
		ChannelID: c.ChannelID(),
		Command:   command,
		Param:     param,
		Datetime:  time.Now(),
	}
	if u := c.Actor(); u != nil {
		r.UserID = u.ID
		r.Username = u.Username
	}
	return r
}
