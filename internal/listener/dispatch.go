package listener

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

// Context is the capability the dispatch loop needs from a command context:
// an independent copy for each listener attempt.
type Context[C any] interface {
	Clone() C
}

// Outcome counts testers and handlers invoked for one event.
type Outcome struct {
	Tested  int
	Handled int
}

// Phase tells whether a failure came from a tester or a handler.
type Phase string

const (
	PhaseTest   Phase = "test"
	PhaseHandle Phase = "handle"
)

// DispatchError aborts the dispatch of one event.
type DispatchError struct {
	Which   Which
	Command string
	Phase   Phase
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s %q failed to %s: %v", e.Which, e.Command, e.Phase, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Dispatch walks listeners in order, skipping those that do not accept
// eventType. Each attempt gets its own clone of c. The first tester to
// return a non-nil Match has its handler run and stops the walk.
//
// Any tester or handler error or panic ends the walk; the returned Outcome
// is zero in that case.
func Dispatch[C Context[C]](ctx context.Context, listeners []*Listener[C], c C, eventType EventType) (Outcome, error) {
	var out Outcome
	for _, l := range listeners {
		if !l.Accepts(eventType) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		attempt := c.Clone()

		var match *Match
		err := capture(func() (err error) {
			match, err = l.Tester(ctx, attempt)
			return err
		})
		out.Tested++
		if err != nil {
			return Outcome{}, &DispatchError{Which: l.Which, Command: l.Command, Phase: PhaseTest, Err: err}
		}
		if match == nil {
			continue
		}

		err = capture(func() error {
			return l.Handler(ctx, attempt, match)
		})
		out.Handled++
		if err != nil {
			return Outcome{}, &DispatchError{Which: l.Which, Command: l.Command, Phase: PhaseHandle, Err: err}
		}
		break
	}
	return out, nil
}

func capture(f func() error) error {
	var pc panics.Catcher
	var err error
	pc.Try(func() { err = f() })
	if r := pc.Recovered(); r != nil {
		return fmt.Errorf("panic: %v", r.Value)
	}
	return err
}
