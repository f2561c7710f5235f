package subagents

import (
	"context"
	"fmt"
)

// RunFn executes tmpl's prompt and toolset against task and returns the
// subagent's final text. Accepting this as an injected function (rather than
// a direct orchestrator dependency) avoids a subagents<->orchestrator import
// cycle, mirroring how composition.Composer takes a RunForecastFn.
type RunFn func(ctx context.Context, tmpl Template, task string) (string, error)

// Dispatcher runs dispatch_subagent calls against an injected RunFn, looking
// up the named template in the fixed roster.
type Dispatcher struct {
	run RunFn
}

// NewDispatcher builds a Dispatcher bound to run.
func NewDispatcher(run RunFn) *Dispatcher {
	return &Dispatcher{run: run}
}

// ErrUnknownAgent is returned when the requested agent name isn't in All.
var ErrUnknownAgent = fmt.Errorf("unknown subagent")

// Dispatch looks up name in the roster and runs task against it.
func (d *Dispatcher) Dispatch(ctx context.Context, name, task string) (string, error) {
	tmpl, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownAgent, name, rosterNames())
	}
	return d.run(ctx, tmpl, task)
}

func rosterNames() string {
	names := make([]string, 0, len(All))
	for name := range All {
		names = append(names, name)
	}
	return fmt.Sprintf("%v", names)
}
