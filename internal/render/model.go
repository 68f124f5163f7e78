// Package render builds a display-ready model from an aggregate snapshot.
// Nothing here does I/O or reads the clock; ages are measured against the
// snapshot's own timestamp.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/status"
)

// RowSummaryWidth is the display budget for a row summary.
const RowSummaryWidth = 70

// StalenessPolicy flags running workers that have gone quiet.
type StalenessPolicy struct {
	StaleAfter time.Duration
}

// DefaultPolicy returns the policy with the default stale threshold.
func DefaultPolicy() StalenessPolicy {
	return StalenessPolicy{StaleAfter: aggregate.DefaultStaleAfter}
}

// Stale reports whether a record in state, last updated age ago, should be shown as possibly dead.
func (p StalenessPolicy) Stale(state status.State, age time.Duration) bool {
	return state == status.StateRunning && p.StaleAfter > 0 && age > p.StaleAfter
}

// Row is one worker line.
type Row struct {
	Worker           string
	State            status.State
	Stale            bool
	AgeDisplay       string
	Summary          string
	FullSummary      string
	WorkingDirectory string
	SessionID        string
	UpdatedAt        time.Time
	// TimestampInferred marks rows whose record carried no usable timestamp.
	TimestampInferred bool
}

// Group is one project and its workers.
type Group struct {
	Project string
	Display string
	Waiting int
	Errors  int
	Running int
	Rows    []Row
}

// NeedsAttention reports whether any worker in the group is waiting or failed.
func (g Group) NeedsAttention() bool {
	return g.Waiting > 0 || g.Errors > 0
}

// Totals are the footer counts across all groups.
type Totals struct {
	Waiting int
	Running int
	Errors  int
	Idle    int
	Total   int
}

// Model is everything a renderer needs for one frame.
type Model struct {
	TakenAt   time.Time
	Groups    []Group
	Totals    Totals
	Err       error
	Truncated bool
	Skipped   int
}

// Empty reports whether there are no workers to show.
func (m Model) Empty() bool {
	return len(m.Groups) == 0
}

// Build turns a snapshot into a model. It is pure: equal snapshots give equal models.
// Groups needing attention come first; each partition is alphabetical by project.
func Build(snap aggregate.Snapshot, policy StalenessPolicy) Model {
	m := Model{
		TakenAt:   snap.TakenAt,
		Err:       snap.Err,
		Truncated: snap.Truncated,
		Skipped:   snap.Skipped,
	}

	for _, project := range snap.ProjectKeys() {
		recs := snap.Projects[project]
		if len(recs) == 0 {
			continue
		}

		g := Group{Project: project, Display: DisplayProject(project)}
		for _, rec := range recs {
			age := rec.Age(snap.TakenAt)
			g.Rows = append(g.Rows, Row{
				Worker:           rec.Worker,
				State:            rec.State,
				Stale:            policy.Stale(rec.State, age),
				AgeDisplay:       FormatAge(snap.TakenAt.Sub(rec.UpdatedAt)),
				Summary:          TruncateSummary(rec.Summary, RowSummaryWidth),
				FullSummary:      rec.Summary,
				WorkingDirectory: rec.WorkingDirectory,
				SessionID:        rec.SessionID,
				UpdatedAt:        rec.UpdatedAt,

				TimestampInferred: rec.TimestampInferred,
			})

			switch rec.State {
			case status.StateWaitingInput:
				g.Waiting++
				m.Totals.Waiting++
			case status.StateError:
				g.Errors++
				m.Totals.Errors++
			case status.StateRunning:
				g.Running++
				m.Totals.Running++
			case status.StateIdle:
				m.Totals.Idle++
			}
			m.Totals.Total++
		}
		m.Groups = append(m.Groups, g)
	}

	sort.SliceStable(m.Groups, func(i, j int) bool {
		ai, aj := m.Groups[i].NeedsAttention(), m.Groups[j].NeedsAttention()
		if ai != aj {
			return ai
		}
		return m.Groups[i].Project < m.Groups[j].Project
	})

	return m
}

// DisplayProject returns the name shown for a project key.
func DisplayProject(project string) string {
	if project == status.DefaultProject {
		return "default"
	}
	return project
}

// FormatAge renders a duration as "just now", "42s ago", "3m ago", "5h ago" or "2d ago".
func FormatAge(d time.Duration) string {
	if d < 0 {
		return "just now"
	}
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

// TruncateSummary flattens a summary onto one line and cuts it to width display cells.
func TruncateSummary(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// HeaderCounts renders the compact per-group badge, e.g. "1w 2r 1e".
func (g Group) HeaderCounts() string {
	var parts []string
	if g.Waiting > 0 {
		parts = append(parts, fmt.Sprintf("%dw", g.Waiting))
	}
	if g.Running > 0 {
		parts = append(parts, fmt.Sprintf("%dr", g.Running))
	}
	if g.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%de", g.Errors))
	}
	return strings.Join(parts, " ")
}

// Footer renders the totals line, e.g. "1 waiting | 1 running | 3 total".
func (t Totals) Footer() string {
	var parts []string
	if t.Waiting > 0 {
		parts = append(parts, fmt.Sprintf("%d waiting", t.Waiting))
	}
	if t.Running > 0 {
		parts = append(parts, fmt.Sprintf("%d running", t.Running))
	}
	if t.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error", t.Errors))
	}
	if t.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d total", t.Total))
	}
	return strings.Join(parts, " | ")
}
