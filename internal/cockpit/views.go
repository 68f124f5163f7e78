package cockpit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/undrift/agentmon/internal/render"
)

const (
	workerColumnWidth = 18
	// rowFixedWidth is every column before the summary, plus row padding.
	rowFixedWidth = 42
)

// renderHeader renders the top title bar with the clock and totals.
func (m Model) renderHeader() string {
	s := m.styles

	title := s.HeaderTitle.Render("AGENT MONITOR")

	clock := ""
	if !m.view.TakenAt.IsZero() {
		clock = m.view.TakenAt.Local().Format("15:04:05")
	}
	stats := "  " + clock
	if footer := m.view.Totals.Footer(); footer != "" {
		stats += "  |  " + footer
	}
	if m.view.Skipped > 0 {
		stats += fmt.Sprintf("  |  %d unreadable", m.view.Skipped)
	}
	if m.view.Truncated {
		stats += "  |  list truncated"
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, title, s.HeaderStat.Render(stats))
	divider := s.DimText.Render(strings.Repeat("─", m.width))

	out := bar + "\n" + divider
	if m.view.Err != nil {
		out += "\n" + s.Banner.Width(m.width).Render(m.view.Err.Error())
	}
	return out
}

// renderGroups renders the left panel with project groups and worker rows.
func (m Model) renderGroups() string {
	s := m.styles

	if m.loading {
		return s.EmptyState.Width(m.leftWidth()).Render("Reading status directory...")
	}
	if m.view.Empty() {
		return s.EmptyState.Width(m.leftWidth()).Render(
			"No agents reporting\n\n" +
				s.DimText.Render("Install the hook with ") +
				s.FooterKey.Render("agentmon hooks install") +
				s.DimText.Render(" or try ") +
				s.FooterKey.Render("agentmon demo"))
	}

	var b strings.Builder
	flatIdx := 0
	shown := 0

	for _, g := range m.view.Groups {
		if !m.visibleGroup(g) {
			continue
		}
		shown++

		collapsed := m.collapsed[g.Project]
		arrow := "v"
		if collapsed {
			arrow = ">"
		}

		header := s.ProjectHeader.Render(fmt.Sprintf("%s %s", arrow, g.Display))
		if counts := g.HeaderCounts(); counts != "" {
			header += "  " + s.ProjectCounts.Render(counts)
		} else {
			header += "  " + s.DimText.Render(fmt.Sprintf("(%d)", len(g.Rows)))
		}
		b.WriteString(header)
		b.WriteString("\n")

		if collapsed {
			continue
		}
		for _, row := range g.Rows {
			b.WriteString(m.renderRow(row, flatIdx))
			b.WriteString("\n")
			flatIdx++
		}
	}

	if shown == 0 {
		return s.EmptyState.Width(m.leftWidth()).Render("Nothing needs attention")
	}
	return b.String()
}

// renderRow renders a single worker line.
func (m Model) renderRow(row render.Row, idx int) string {
	s := m.styles
	isSelected := idx == m.cursor

	stateStyle := s.State(row.State)
	label := row.State.Label()
	if row.Stale {
		stateStyle = s.Stale
		label = "STALE"
	}

	cursor := " "
	if isSelected {
		cursor = "*"
	}

	worker := runewidth.FillRight(runewidth.Truncate(row.Worker, workerColumnWidth, "…"), workerColumnWidth)
	parts := []string{
		cursor,
		stateStyle.Render(stateIcon(row.State)),
		worker,
		stateStyle.Render(fmt.Sprintf("%-7s", label)),
		s.DimText.Render(fmt.Sprintf("%-8s", row.AgeDisplay)),
	}

	summary := row.Summary
	if summary == "" {
		summary = "-"
	}
	if room := m.leftWidth() - rowFixedWidth; room > 3 {
		parts = append(parts, s.DimText.Render(runewidth.Truncate(summary, room, "...")))
	}

	line := strings.Join(parts, " ")
	if isSelected {
		return s.SelectedRow.Width(m.leftWidth()).Render(line)
	}
	return s.WorkerRow.Render(line)
}

// detailContent is the text shown in the right panel for one worker.
func (m Model) detailContent(g render.Group, row render.Row) string {
	s := m.styles
	var b strings.Builder

	field := func(label, value string) {
		if value == "" {
			value = s.DimText.Render("-")
		}
		b.WriteString(s.DetailLabel.Render(label) + " " + value + "\n")
	}

	state := s.State(row.State).Render(row.State.Label())
	if row.Stale {
		state += "  " + s.Stale.Render("(stale: no update for "+strings.TrimSpace(humanize.RelTime(row.UpdatedAt, m.view.TakenAt, "", ""))+")")
	}

	updated := humanize.RelTime(row.UpdatedAt, m.view.TakenAt, "ago", "from now")
	updated += s.DimText.Render("  " + row.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if row.TimestampInferred {
		updated += s.DimText.Render("  (no timestamp recorded)")
	}

	field("Project", g.Display)
	field("Worker", row.Worker)
	field("State", state)
	field("Updated", updated)
	field("Path", row.WorkingDirectory)
	field("Session", row.SessionID)
	b.WriteString("\n")

	summary := row.FullSummary
	if summary == "" {
		summary = s.DimText.Render("(no summary)")
	}
	b.WriteString(lipgloss.NewStyle().Width(max(10, m.rightWidth()-2)).Render(summary))

	return b.String()
}

// renderDetail renders the right panel with the selected worker's details.
func (m Model) renderDetail() string {
	s := m.styles
	panel := s.PanelRight.Width(m.rightWidth()).Height(m.contentHeight())

	row, _, ok := m.selectedRow()
	if !ok {
		return panel.Render(s.DimText.Render("No worker selected"))
	}

	title := s.DetailTitle.Render(fmt.Sprintf(" %s ", row.Worker))
	return panel.Render(title + "\n" + m.detail.View())
}

// renderFooter renders the flash line and the keybinding help bar.
func (m Model) renderFooter() string {
	s := m.styles
	divider := s.DimText.Render(strings.Repeat("─", m.width))

	var flash string
	if m.flash != "" {
		flash = s.Flash.Render(m.flash) + "\n"
	}

	if m.showHelp {
		return divider + "\n" + flash + s.Footer.Render(m.help.View(m.keys))
	}

	bindings := []string{
		s.FooterKey.Render("j/k") + " " + s.FooterDesc.Render("navigate"),
		s.FooterKey.Render("enter") + " " + s.FooterDesc.Render("open"),
		s.FooterKey.Render("x") + " " + s.FooterDesc.Render("clear"),
		s.FooterKey.Render("r") + " " + s.FooterDesc.Render("refresh"),
		s.FooterKey.Render("a") + " " + s.FooterDesc.Render("attention"),
		s.FooterKey.Render("tab") + " " + s.FooterDesc.Render("expand"),
		s.FooterKey.Render("?") + " " + s.FooterDesc.Render("help"),
		s.FooterKey.Render("q") + " " + s.FooterDesc.Render("quit"),
	}

	filterIndicator := ""
	if m.attentionOnly {
		filterIndicator = s.FilterBadge.Render(" [attention only]")
	}

	return divider + "\n" + flash + s.Footer.Render(strings.Join(bindings, "  ")) + filterIndicator
}

// renderConfirmOverlay renders a centered clear confirmation dialog.
func (m Model) renderConfirmOverlay() string {
	row, g, ok := m.selectedRow()
	if !ok {
		return ""
	}

	s := m.styles
	content := s.OverlayTitle.Render("Clear Worker") + "\n\n" +
		fmt.Sprintf("Remove the status record for %s?", s.DetailTitle.Render(g.Display+"/"+row.Worker)) + "\n\n" +
		s.FooterKey.Render("y") + " confirm  " +
		s.FooterKey.Render("n") + " cancel"

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s.Overlay.Render(content))
}

// leftWidth returns the width of the left panel.
func (m Model) leftWidth() int {
	return int(float64(m.width) * 0.55)
}

// rightWidth returns the width of the right panel.
func (m Model) rightWidth() int {
	return max(0, m.width-m.leftWidth()-4) // account for borders and padding
}

// contentHeight returns the usable content height.
func (m Model) contentHeight() int {
	h := m.height - 5 // header + footer + padding
	if m.view.Err != nil {
		h--
	}
	if m.flash != "" {
		h--
	}
	return max(0, h)
}
