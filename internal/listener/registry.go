package listener

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var separatorRun = regexp.MustCompile(`[-\s]+`)

// CompileCommandRegex builds the case-insensitive matcher for a message
// command. Runs of '-' and whitespace become [\-\s]*, so "gm-list" matches
// "gm list", "GM-LIST", "gm  list" and also "gmlist". Anything after the
// command and at least one space is captured as group 1.
func CompileCommandRegex(command string) *regexp.Regexp {
	pattern := separatorRun.ReplaceAllString(regexp.QuoteMeta(strings.TrimSpace(command)), `[\-\s]*`)
	return regexp.MustCompile(`(?is)^` + pattern + `(?:$|\s+(.*))$`)
}

// Compare orders listeners by priority ascending, then command length
// descending, then command ascending.
func Compare[C any](a, b *Listener[C]) int {
	if c := cmp.Compare(a.Priority(), b.Priority()); c != 0 {
		return c
	}
	if c := cmp.Compare(len(b.Command), len(a.Command)); c != 0 {
		return c
	}
	return strings.Compare(a.Command, b.Command)
}

// Registry holds the listeners of one family in dispatch order.
type Registry[C any] struct {
	which Which
	log   *zap.Logger

	mu        sync.RWMutex
	listeners []*Listener[C]
}

// NewRegistry returns an empty registry for the given family.
func NewRegistry[C any](which Which, log *zap.Logger) *Registry[C] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry[C]{which: which, log: log}
}

// Which returns the family this registry serves.
func (r *Registry[C]) Which() Which { return r.which }

// Register appends a listener and re-sorts the registry. Duplicate commands
// and priorities are logged, not rejected.
func (r *Registry[C]) Register(tester Tester[C], handler Handler[C], opts Options) *Listener[C] {
	command := strings.TrimSpace(opts.Command)
	if command == "" {
		r.log.Error("Listener registered without a command", zap.Stringer("which", r.which))
	}
	if tester == nil || handler == nil {
		r.log.Error("Listener registered without tester or handler",
			zap.Stringer("which", r.which), zap.String("command", command))
	}

	l := &Listener[C]{
		Which:         r.which,
		Command:       command,
		Tester:        tester,
		Handler:       handler,
		Type:          opts.Type,
		Intents:       opts.Intents,
		Permissions:   opts.Permissions,
		Definition:    opts.Definition,
		priorityIndex: opts.PriorityIndex,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listeners {
		if r.which == MessageListener && existing.Command == l.Command {
			r.log.Warn("Duplicate listener command",
				zap.Stringer("which", r.which), zap.String("command", l.Command))
		}
		if l.HasPriority() && existing.HasPriority() && existing.Priority() == l.Priority() {
			r.log.Warn("Duplicate listener priority",
				zap.Stringer("which", r.which),
				zap.Int("priority", l.Priority()),
				zap.String("command", l.Command),
				zap.String("existing", existing.Command))
		}
	}

	r.listeners = append(r.listeners, l)
	slices.SortStableFunc(r.listeners, Compare[C])
	return l
}

// Listeners returns a snapshot of the listeners in dispatch order.
func (r *Registry[C]) Listeners() []*Listener[C] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.listeners)
}

// Len returns the number of registered listeners.
func (r *Registry[C]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
