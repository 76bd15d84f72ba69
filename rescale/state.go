package rescale

import (
	"fmt"

	"github.com/YuminosukeSato/atomscale/pkg/log"
)

// State is a configurator's progress through a single call.
type State int

const (
	Uninitialized State = iota
	Validating
	ComputingStats
	SkippingStats
	Configured
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Validating:
		return "validating"
	case ComputingStats:
		return "computing_stats"
	case SkippingStats:
		return "skipping_stats"
	case Configured:
		return "configured"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var transitions = map[State][]State{
	Uninitialized:  {Validating},
	Validating:     {ComputingStats, SkippingStats},
	ComputingStats: {Configured},
	SkippingStats:  {Configured},
}

// machine tracks and logs state transitions.
type machine struct {
	state  State
	logger log.Logger
}

func newMachine(logger log.Logger) *machine {
	return &machine{state: Uninitialized, logger: logger}
}

// to moves to next. An illegal transition is a programming error.
func (m *machine) to(next State) {
	ok := false
	for _, s := range transitions[m.state] {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		panic(fmt.Sprintf("rescale: illegal transition %s -> %s", m.state, next))
	}
	m.logger.Debug("rescale state", log.StateKey, next.String(), "from", m.state.String())
	m.state = next
}
