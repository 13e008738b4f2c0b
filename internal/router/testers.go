package router

import (
	"context"
	"slices"
	"strings"

	"github.com/keshon/rpg-sage/internal/args"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/sage"
)

// MessageCommand matches "!command ..." using the same normalization as
// the registry, and stores the command and parsed arguments on the context.
func MessageCommand(command string) listener.Tester[*sage.Message] {
	re := listener.CompileCommandRegex(command)
	return func(_ context.Context, m *sage.Message) (*listener.Match, error) {
		text, ok := m.CommandText()
		if !ok {
			return nil, nil
		}
		sub := re.FindStringSubmatch(text)
		if sub == nil {
			return nil, nil
		}
		a := args.Parse(sub[1])
		m.SetCommandAndArgs(command, a)
		return &listener.Match{Command: command, Args: a}, nil
	}
}

// SlashCommand matches a slash or context-menu command by name.
func SlashCommand(name string) listener.Tester[*sage.Interaction] {
	return func(_ context.Context, in *sage.Interaction) (*listener.Match, error) {
		if in.Kind != sage.KindSlashCommand && in.Kind != sage.KindContextMenu {
			return nil, nil
		}
		if !strings.EqualFold(in.Name(), name) {
			return nil, nil
		}
		in.SetCommandAndArgs(name, nil)
		return &listener.Match{Command: name, Data: in.Subcommand()}, nil
	}
}

// Component matches buttons, select menus and modals whose custom id is
// prefix or starts with prefix followed by ':'. The rest of the id is
// returned as Data.
func Component(prefix string) listener.Tester[*sage.Interaction] {
	return func(_ context.Context, in *sage.Interaction) (*listener.Match, error) {
		switch in.Kind {
		case sage.KindButton, sage.KindSelectMenu, sage.KindModal:
		default:
			return nil, nil
		}
		id := in.Name()
		if id == prefix {
			return &listener.Match{Command: prefix, Data: ""}, nil
		}
		if rest, ok := strings.CutPrefix(id, prefix+":"); ok {
			return &listener.Match{Command: prefix, Data: rest}, nil
		}
		return nil, nil
	}
}

// ReactionEmoji matches reactions using one of emojis.
func ReactionEmoji(command string, emojis ...string) listener.Tester[*sage.Reaction] {
	return func(_ context.Context, r *sage.Reaction) (*listener.Match, error) {
		if !slices.Contains(emojis, r.Emoji()) {
			return nil, nil
		}
		return &listener.Match{Command: command, Data: r.Emoji()}, nil
	}
}
