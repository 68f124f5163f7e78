// Package cockpit implements the live TUI dashboard of agent workers.
package cockpit

import (
	"time"

	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/render"
	"github.com/undrift/agentmon/internal/status"
)

// Options configure a dashboard.
type Options struct {
	Engine       *aggregate.Engine
	Policy       render.StalenessPolicy
	PollInterval time.Duration
	// Changes nudges a refresh before the next tick. May be nil.
	Changes <-chan struct{}
	// InTmux opens workers in a new tmux window instead of exiting.
	InTmux bool
}

// rowRef locates one navigable row in the current render model.
type rowRef struct {
	group int
	row   int
}

// selection identifies a worker independently of its position, so the
// cursor follows it across refreshes that reorder groups.
type selection struct {
	project string
	worker  string
}

func (s selection) valid() bool {
	return s.project != "" || s.worker != ""
}

// Messages for the bubbletea event loop.
type (
	tickMsg   struct{}
	changeMsg struct{ open bool }

	refreshDoneMsg struct {
		model    render.Model
		fromTick bool
	}

	clearDoneMsg struct {
		key     string
		removed bool
		err     error
	}

	openDoneMsg struct {
		path string
		err  error
	}
)

// stateIcon is the glyph shown before a worker row.
func stateIcon(state status.State) string {
	switch state {
	case status.StateRunning:
		return "●"
	case status.StateWaitingInput:
		return "◆"
	case status.StateIdle:
		return "○"
	case status.StateError:
		return "✗"
	default:
		return "·"
	}
}
