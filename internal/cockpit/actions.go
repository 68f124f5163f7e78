package cockpit

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/pkg/shell"
)

// cmdTimeout is the max time a tmux command can take before being killed.
const cmdTimeout = 2 * time.Second

// clearCmd removes one worker's record from the store.
func clearCmd(engine *aggregate.Engine, project, worker string) tea.Cmd {
	return func() tea.Msg {
		removed, err := engine.Store().Clear(project, worker)
		return clearDoneMsg{key: project + "/" + worker, removed: removed, err: err}
	}
}

// openInTmuxCmd opens a new tmux window rooted at the worker's directory.
func openInTmuxCmd(runner shell.Runner, path, name string) tea.Cmd {
	return func() tea.Msg {
		_, err := shell.Output(context.Background(), runner, shell.Command{
			Name:    "tmux",
			Args:    []string{"new-window", "-c", path, "-n", name},
			Timeout: cmdTimeout,
		})
		return openDoneMsg{path: path, err: err}
	}
}
