// Package listener holds tester/handler pairs for one event family, keeps
// them in dispatch order and walks them for an inbound event.
package listener

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/args"
)

// Which names the event family a listener belongs to.
type Which int

const (
	InteractionListener Which = iota + 1
	MessageListener
	ReactionListener
)

func (w Which) String() string {
	switch w {
	case InteractionListener:
		return "InteractionListener"
	case MessageListener:
		return "MessageListener"
	case ReactionListener:
		return "ReactionListener"
	default:
		return "UnknownListener"
	}
}

// EventType is a bitmask of event sub-types a listener accepts.
type EventType uint8

const (
	MessagePost EventType = 1 << iota
	MessageEdit

	MessageBoth = MessagePost | MessageEdit
)

const (
	ReactionAdd EventType = 1 << iota
	ReactionRemove

	ReactionBoth = ReactionAdd | ReactionRemove
)

// DefaultPriority is used for listeners registered without a priority.
const DefaultPriority = 999

// Match is what a tester returns when it wants its handler to run.
// A nil *Match means no match; any non-nil value, even &Match{}, is actionable.
type Match struct {
	Command string
	Args    *args.Manager
	Data    any
}

// Tester decides whether a listener applies to c.
type Tester[C any] func(ctx context.Context, c C) (*Match, error)

// Handler acts on a context its tester matched.
type Handler[C any] func(ctx context.Context, c C, m *Match) error

// Options configures a registration.
type Options struct {
	// Command identifies the listener; required.
	Command string
	// Type restricts the event sub-types the listener sees. Zero accepts all.
	Type EventType
	// PriorityIndex orders tiers; lower runs first. Zero means unset.
	PriorityIndex int
	Intents       discordgo.Intent
	Permissions   int64
	// Definition is synced to Discord for slash and context-menu commands.
	Definition *discordgo.ApplicationCommand
}

// Listener is one registered tester/handler pair.
type Listener[C any] struct {
	Which       Which
	Command     string
	Tester      Tester[C]
	Handler     Handler[C]
	Type        EventType
	Intents     discordgo.Intent
	Permissions int64
	Definition  *discordgo.ApplicationCommand

	priorityIndex int
}

// Priority returns the effective priority index.
func (l *Listener[C]) Priority() int {
	if l.priorityIndex == 0 {
		return DefaultPriority
	}
	return l.priorityIndex
}

// HasPriority reports whether a priority was given at registration.
func (l *Listener[C]) HasPriority() bool { return l.priorityIndex != 0 }

// Accepts reports whether the listener wants events of type t.
func (l *Listener[C]) Accepts(t EventType) bool {
	return l.Type == 0 || l.Type&t != 0
}
