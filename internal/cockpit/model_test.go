package cockpit

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/status"
	"github.com/undrift/agentmon/pkg/shell"
)

func newTestModel(t *testing.T, recs ...status.Record) (Model, *status.Store) {
	t.Helper()
	store := status.NewStore(t.TempDir())
	for _, rec := range recs {
		if _, err := store.Write(rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	m := NewModel(Options{Engine: aggregate.New(store, aggregate.Options{}, nil)})
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	m = refresh(t, m)
	return m, store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func refresh(t *testing.T, m Model) Model {
	t.Helper()
	msg := refreshCmd(m.engine, m.policy, false)()
	return update(t, m, msg)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func rec(project, worker string, state status.State, summary string) status.Record {
	return status.Record{
		Project:          project,
		Worker:           worker,
		State:            state,
		Summary:          summary,
		WorkingDirectory: "/src/" + worker,
		UpdatedAt:        time.Now().Add(-time.Minute),
	}
}

func selectedKey(m Model) string {
	row, g, ok := m.selectedRow()
	if !ok {
		return ""
	}
	return g.Project + "/" + row.Worker
}

func TestModel_RefreshOrdersAttentionFirst(t *testing.T) {
	m, _ := newTestModel(t,
		rec("alpha", "w1", status.StateIdle, "done"),
		rec("beta", "w1", status.StateWaitingInput, "Deploy to prod?"),
	)

	if m.loading {
		t.Error("loading should be false after the first refresh")
	}
	if got := selectedKey(m); got != "beta/w1" {
		t.Errorf("initial selection = %q, want beta/w1", got)
	}

	view := m.View()
	for _, want := range []string{"AGENT MONITOR", "beta", "WAITING", "Deploy to prod?", "1 waiting"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(t,
		rec("p", "a", status.StateRunning, ""),
		rec("p", "b", status.StateRunning, ""),
	)

	m, _ = press(t, m, "j")
	if got := selectedKey(m); got != "p/b" {
		t.Errorf("after j selection = %q, want p/b", got)
	}
	m, _ = press(t, m, "j")
	if got := selectedKey(m); got != "p/b" {
		t.Errorf("j at the end should stay, got %q", got)
	}
	m, _ = press(t, m, "k")
	if got := selectedKey(m); got != "p/a" {
		t.Errorf("after k selection = %q, want p/a", got)
	}
}

func TestModel_SelectionFollowsWorkerAcrossReorder(t *testing.T) {
	m, store := newTestModel(t,
		rec("alpha", "w1", status.StateRunning, ""),
		rec("beta", "w1", status.StateRunning, ""),
	)
	m, _ = press(t, m, "j")
	if got := selectedKey(m); got != "beta/w1" {
		t.Fatalf("selection = %q, want beta/w1", got)
	}

	// alpha now needs attention and moves above beta
	if _, err := store.Write(rec("alpha", "w1", status.StateError, "boom")); err != nil {
		t.Fatal(err)
	}
	m = refresh(t, m)

	if got := selectedKey(m); got != "beta/w1" {
		t.Errorf("selection after reorder = %q, want beta/w1", got)
	}
}

func TestModel_AttentionFilter(t *testing.T) {
	m, _ := newTestModel(t,
		rec("calm", "w1", status.StateIdle, ""),
		rec("hot", "w1", status.StateError, "Tests failed"),
	)

	m, _ = press(t, m, "a")
	if len(m.rows) != 1 || selectedKey(m) != "hot/w1" {
		t.Errorf("attention filter rows = %d (%s), want only hot/w1", len(m.rows), selectedKey(m))
	}
	if !strings.Contains(m.View(), "[attention only]") {
		t.Error("View() should show the attention filter badge")
	}

	m, _ = press(t, m, "a")
	if len(m.rows) != 2 {
		t.Errorf("rows after clearing filter = %d, want 2", len(m.rows))
	}
}

func TestModel_CollapseGroup(t *testing.T) {
	m, _ := newTestModel(t,
		rec("p", "a", status.StateRunning, ""),
		rec("p", "b", status.StateRunning, ""),
		rec("q", "c", status.StateRunning, ""),
	)

	m, _ = press(t, m, "tab")
	if len(m.rows) != 1 || selectedKey(m) != "q/c" {
		t.Errorf("after collapsing p: rows = %d, selected %q; want 1, q/c", len(m.rows), selectedKey(m))
	}
}

func TestModel_ClearWithConfirmation(t *testing.T) {
	m, store := newTestModel(t, rec("p", "w1", status.StateIdle, ""))

	m, _ = press(t, m, "x")
	if !m.confirmClear {
		t.Fatal("x should ask for confirmation")
	}
	if !strings.Contains(m.View(), "Clear Worker") {
		t.Error("View() should show the confirmation overlay")
	}

	m, cmd := press(t, m, "y")
	if cmd == nil {
		t.Fatal("confirming should return a clear command")
	}
	done := cmd().(clearDoneMsg)
	if done.err != nil || !done.removed {
		t.Fatalf("clear result = %+v, want removed", done)
	}
	m = update(t, m, done)
	m = refresh(t, m)

	if !m.view.Empty() {
		t.Errorf("model should be empty after clear, got %d groups", len(m.view.Groups))
	}
	listing, _ := store.Entries(10)
	if len(listing.Entries) != 0 {
		t.Errorf("store still has %d entries", len(listing.Entries))
	}
}

func TestModel_ClearCancelled(t *testing.T) {
	m, _ := newTestModel(t, rec("p", "w1", status.StateIdle, ""))

	m, _ = press(t, m, "x")
	m, cmd := press(t, m, "n")
	if m.confirmClear || cmd != nil {
		t.Error("n should cancel without a command")
	}
}

func TestModel_OpenOutsideTmuxQuits(t *testing.T) {
	m, _ := newTestModel(t, rec("p", "w1", status.StateIdle, ""))

	m, cmd := press(t, m, "enter")
	if m.OpenPath() != "/src/w1" {
		t.Errorf("OpenPath() = %q, want /src/w1", m.OpenPath())
	}
	if cmd == nil {
		t.Fatal("enter should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("enter outside tmux should return tea.Quit")
	}
}

type fakeRunner struct {
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, c shell.Command) (*shell.Result, error) {
	f.calls = append(f.calls, append([]string{c.Name}, c.Args...))
	return &shell.Result{}, nil
}

func TestModel_OpenInTmux(t *testing.T) {
	m, _ := newTestModel(t, rec("p", "w1", status.StateIdle, ""))
	runner := &fakeRunner{}
	m.runner = runner
	m.inTmux = true

	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("enter in tmux should return an open command")
	}
	msg := cmd().(openDoneMsg)
	if msg.err != nil {
		t.Fatalf("open error = %v", msg.err)
	}
	want := "tmux new-window -c /src/w1 -n w1"
	if len(runner.calls) != 1 || strings.Join(runner.calls[0], " ") != want {
		t.Errorf("runner calls = %v, want [%s]", runner.calls, want)
	}

	m = update(t, m, msg)
	if m.OpenPath() != "" {
		t.Error("OpenPath() should stay empty inside tmux")
	}
	if !strings.Contains(m.flash, "opened") {
		t.Errorf("flash = %q, want an opened message", m.flash)
	}
}

func TestModel_StoreErrorBanner(t *testing.T) {
	m, _ := newTestModel(t)
	m.view.Err = aggregate.ErrStoreUnavailable
	if !strings.Contains(m.View(), aggregate.ErrStoreUnavailable.Error()) {
		t.Error("View() should show the store error banner")
	}
}

func TestModel_TickDoesNotOverlapRefresh(t *testing.T) {
	m, _ := newTestModel(t)
	m.refreshing = true

	next, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("tick while refreshing should reschedule a tick")
	}
	if !next.(Model).refreshing {
		t.Error("refreshing flag should be untouched")
	}
}

func TestModel_ChangeChannelClosed(t *testing.T) {
	m, _ := newTestModel(t)
	ch := make(chan struct{})
	m.changes = ch
	close(ch)

	msg := waitForChange(m.changes)()
	m = update(t, m, msg)
	if m.changes != nil {
		t.Error("closed change channel should stop the watcher")
	}
}

func TestModel_EmptyState(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), "No agents reporting") {
		t.Error("View() should show the empty state")
	}
}
