package cockpit

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/render"
	"github.com/undrift/agentmon/pkg/shell"
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	engine       *aggregate.Engine
	policy       render.StalenessPolicy
	pollInterval time.Duration
	changes      <-chan struct{}
	runner       shell.Runner

	view          render.Model
	rows          []rowRef
	cursor        int
	selected      selection
	collapsed     map[string]bool
	detail        viewport.Model
	help          help.Model
	keys          KeyMap
	styles        Styles
	width, height int
	showHelp      bool
	confirmClear  bool
	attentionOnly bool
	inTmux        bool
	loading       bool
	refreshing    bool // guards against overlapping refresh cycles
	flash         string
	openPath      string
}

// NewModel creates a new dashboard model.
func NewModel(opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = aggregate.DefaultPollInterval
	}
	if opts.Policy.StaleAfter == 0 {
		opts.Policy = render.DefaultPolicy()
	}

	return Model{
		engine:       opts.Engine,
		policy:       opts.Policy,
		pollInterval: opts.PollInterval,
		changes:      opts.Changes,
		runner:       shell.NewRunner(),
		collapsed:    make(map[string]bool),
		detail:       viewport.New(0, 0),
		help:         help.New(),
		keys:         DefaultKeyMap(),
		styles:       DefaultStyles(),
		inTmux:       opts.InTmux,
		loading:      true,
	}
}

// OpenPath returns the worker directory chosen with enter when not running inside tmux.
func (m Model) OpenPath() string {
	return m.openPath
}

// Init starts the initial refresh and the change watcher. The tick timer
// starts after the first refresh completes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(m.engine, m.policy, true), waitForChange(m.changes))
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.detail.Width = m.rightWidth()
		m.detail.Height = max(0, m.contentHeight()-2) // leave room for title
		m.updateDetail()
		return m, nil

	case tickMsg:
		if m.refreshing {
			return m, tickCmd(m.pollInterval)
		}
		m.refreshing = true
		return m, refreshCmd(m.engine, m.policy, true)

	case changeMsg:
		if !msg.open {
			m.changes = nil
			return m, nil
		}
		if m.refreshing {
			return m, waitForChange(m.changes)
		}
		m.refreshing = true
		return m, tea.Batch(refreshCmd(m.engine, m.policy, false), waitForChange(m.changes))

	case refreshDoneMsg:
		m.view = msg.model
		m.loading = false
		m.refreshing = false
		m.rebuildRows()
		m.updateDetail()
		// Only tick-driven refreshes restart the timer, so nudges never add a second chain
		if msg.fromTick {
			return m, tickCmd(m.pollInterval)
		}
		return m, nil

	case clearDoneMsg:
		switch {
		case msg.err != nil:
			m.flash = fmt.Sprintf("clear failed: %v", msg.err)
		case msg.removed:
			m.flash = "cleared " + msg.key
		default:
			m.flash = msg.key + " was already gone"
		}
		return m, m.manualRefresh()

	case openDoneMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("open failed: %v", msg.err)
		} else {
			m.flash = "opened " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// manualRefresh polls now unless a refresh is already in flight.
func (m *Model) manualRefresh() tea.Cmd {
	if m.refreshing {
		return nil
	}
	m.refreshing = true
	return refreshCmd(m.engine, m.policy, false)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmClear = false
			if row, group, ok := m.selectedRow(); ok {
				return m, clearCmd(m.engine, group.Project, row.Worker)
			}
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.confirmClear = false
			return m, nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.rememberSelection()
			m.updateDetail()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.rememberSelection()
			m.updateDetail()
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		row, _, ok := m.selectedRow()
		if !ok || row.WorkingDirectory == "" {
			m.flash = "no directory recorded for this worker"
			return m, nil
		}
		if m.inTmux {
			return m, openInTmuxCmd(m.runner, row.WorkingDirectory, row.Worker)
		}
		m.openPath = row.WorkingDirectory
		return m, tea.Quit

	case key.Matches(msg, m.keys.Clear):
		if _, _, ok := m.selectedRow(); ok {
			m.confirmClear = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.flash = ""
		return m, m.manualRefresh()

	case key.Matches(msg, m.keys.AttentionOnly):
		m.attentionOnly = !m.attentionOnly
		m.rebuildRows()
		m.updateDetail()
		return m, nil

	case key.Matches(msg, m.keys.ToggleExpand):
		m.toggleExpandAtCursor()
		m.rebuildRows()
		m.updateDetail()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	}

	return m, nil
}

// View renders the full dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.confirmClear {
		return m.renderConfirmOverlay()
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	left := m.renderGroups()
	right := m.renderDetail()

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.PanelLeft.Width(m.leftWidth()).Height(m.contentHeight()).Render(left),
		right,
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// visibleGroup reports whether a group is shown under the current filter.
func (m Model) visibleGroup(g render.Group) bool {
	return !m.attentionOnly || g.NeedsAttention()
}

// rebuildRows flattens the navigable rows and restores the selection.
func (m *Model) rebuildRows() {
	m.rows = nil
	for gi, g := range m.view.Groups {
		if !m.visibleGroup(g) || m.collapsed[g.Project] {
			continue
		}
		for ri := range g.Rows {
			m.rows = append(m.rows, rowRef{group: gi, row: ri})
		}
	}

	if m.selected.valid() {
		for i, ref := range m.rows {
			g := m.view.Groups[ref.group]
			if g.Project == m.selected.project && g.Rows[ref.row].Worker == m.selected.worker {
				m.cursor = i
				return
			}
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
	m.rememberSelection()
}

func (m *Model) rememberSelection() {
	if row, group, ok := m.selectedRow(); ok {
		m.selected = selection{project: group.Project, worker: row.Worker}
		return
	}
	m.selected = selection{}
}

// selectedRow returns the row under the cursor and its group.
func (m Model) selectedRow() (render.Row, render.Group, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return render.Row{}, render.Group{}, false
	}
	ref := m.rows[m.cursor]
	g := m.view.Groups[ref.group]
	return g.Rows[ref.row], g, true
}

// toggleExpandAtCursor collapses or expands the group the cursor is in.
func (m *Model) toggleExpandAtCursor() {
	if _, g, ok := m.selectedRow(); ok {
		m.collapsed[g.Project] = !m.collapsed[g.Project]
		return
	}
	// Nothing selected: reopen the first collapsed visible group
	for _, g := range m.view.Groups {
		if m.visibleGroup(g) && m.collapsed[g.Project] {
			m.collapsed[g.Project] = false
			return
		}
	}
}

// updateDetail refreshes the right-hand viewport for the selected row.
func (m *Model) updateDetail() {
	row, group, ok := m.selectedRow()
	if !ok {
		m.detail.SetContent("")
		return
	}
	m.detail.SetContent(m.detailContent(group, row))
}

// Commands

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func refreshCmd(engine *aggregate.Engine, policy render.StalenessPolicy, fromTick bool) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{model: render.Build(engine.Poll(), policy), fromTick: fromTick}
	}
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		_, ok := <-changes
		return changeMsg{open: ok}
	}
}
