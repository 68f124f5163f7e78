package cockpit

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/undrift/agentmon/internal/status"
)

// Color constants matching the ui package palette.
const (
	colorCyan   = lipgloss.Color("#00BCD4")
	colorGreen  = lipgloss.Color("#4CAF50")
	colorYellow = lipgloss.Color("#FFC107")
	colorRed    = lipgloss.Color("#F44336")
	colorBlue   = lipgloss.Color("#2196F3")
	colorDim    = lipgloss.Color("#666666")
	colorWhite  = lipgloss.Color("#FFFFFF")
	colorBorder = lipgloss.Color("#333355")
	colorSelect = lipgloss.Color("#16213e")
)

// Styles holds all lipgloss styles for the dashboard.
type Styles struct {
	HeaderTitle   lipgloss.Style
	HeaderStat    lipgloss.Style
	ProjectHeader lipgloss.Style
	ProjectCounts lipgloss.Style
	WorkerRow     lipgloss.Style
	SelectedRow   lipgloss.Style
	StateRunning  lipgloss.Style
	StateWaiting  lipgloss.Style
	StateIdle     lipgloss.Style
	StateError    lipgloss.Style
	StateUnknown  lipgloss.Style
	Stale         lipgloss.Style
	DimText       lipgloss.Style
	DetailLabel   lipgloss.Style
	DetailTitle   lipgloss.Style
	Banner        lipgloss.Style
	Flash         lipgloss.Style
	Footer        lipgloss.Style
	FooterKey     lipgloss.Style
	FooterDesc    lipgloss.Style
	FilterBadge   lipgloss.Style
	Overlay       lipgloss.Style
	OverlayTitle  lipgloss.Style
	EmptyState    lipgloss.Style
	PanelLeft     lipgloss.Style
	PanelRight    lipgloss.Style
}

// DefaultStyles returns the default style set.
func DefaultStyles() Styles {
	return Styles{
		HeaderTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan),
		HeaderStat: lipgloss.NewStyle().
			Foreground(colorDim),
		ProjectHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue),
		ProjectCounts: lipgloss.NewStyle().
			Foreground(colorYellow),
		WorkerRow: lipgloss.NewStyle().
			Padding(0, 1),
		SelectedRow: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(colorWhite).
			Background(colorSelect),
		StateRunning: lipgloss.NewStyle().
			Foreground(colorCyan),
		StateWaiting: lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true),
		StateIdle: lipgloss.NewStyle().
			Foreground(colorGreen),
		StateError: lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true),
		StateUnknown: lipgloss.NewStyle().
			Foreground(colorDim),
		Stale: lipgloss.NewStyle().
			Foreground(colorDim).
			Faint(true),
		DimText: lipgloss.NewStyle().
			Foreground(colorDim),
		DetailLabel: lipgloss.NewStyle().
			Foreground(colorDim).
			Width(10),
		DetailTitle: lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true),
		Banner: lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorRed).
			Padding(0, 1),
		Flash: lipgloss.NewStyle().
			Foreground(colorGreen).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1),
		FooterKey: lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true),
		FooterDesc: lipgloss.NewStyle().
			Foreground(colorDim),
		FilterBadge: lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(1, 3).
			Align(lipgloss.Center),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true),
		EmptyState: lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Center).
			Padding(2, 0),
		PanelLeft: lipgloss.NewStyle().
			Padding(0, 1),
		PanelRight: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
	}
}

// State returns the style for a worker state.
func (s Styles) State(state status.State) lipgloss.Style {
	switch state {
	case status.StateRunning:
		return s.StateRunning
	case status.StateWaitingInput:
		return s.StateWaiting
	case status.StateIdle:
		return s.StateIdle
	case status.StateError:
		return s.StateError
	default:
		return s.StateUnknown
	}
}
