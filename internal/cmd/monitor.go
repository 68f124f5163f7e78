package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/cockpit"
	"github.com/undrift/agentmon/internal/logging"
	"github.com/undrift/agentmon/internal/render"
	"github.com/undrift/agentmon/internal/ui"
	"github.com/undrift/agentmon/pkg/shell"
)

var (
	onceFlag    bool
	plainFlag   bool
	refreshFlag time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show the status of every agent",
	Long: `Show the status of every agent, grouped by project.

By default this opens a live dashboard. Workers waiting for input or in
error are listed first. Use --once to print a single table, or --plain to
reprint the table on every refresh without taking over the terminal.

When stdout is not a terminal, the table is printed once.`,
	Example: `  agentmon monitor            # Live dashboard
  agentmon monitor --once     # Print the table and exit
  agentmon monitor --plain    # Reprint the table every refresh
  agentmon --refresh 5s       # Poll every five seconds`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	addMonitorFlags(monitorCmd)
	rootCmd.AddCommand(monitorCmd)
}

func addMonitorFlags(c *cobra.Command) {
	c.Flags().BoolVar(&onceFlag, "once", false, "print the status table once and exit")
	c.Flags().BoolVar(&plainFlag, "plain", false, "reprint the status table on every refresh")
	c.Flags().DurationVar(&refreshFlag, "refresh", 0, "refresh interval (default from config, 1s)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	interval := cfg.PollInterval
	if refreshFlag > 0 {
		interval = refreshFlag
	}

	switch {
	case onceFlag:
		return printOnce(os.Stdout)
	case plainFlag:
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPlain(ctx, os.Stdout, interval)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		ui.Debug("stdout is not a terminal, printing once")
		return printOnce(os.Stdout)
	}
	return runDashboard(cmd.Context(), interval)
}

func printOnce(w io.Writer) error {
	engine := newEngine(stderrLogger())
	m := render.Build(engine.Poll(), stalenessPolicy())
	if m.Err != nil {
		return m.Err
	}
	printTable(w, m, isTerminalWriter(w))
	return nil
}

func runPlain(ctx context.Context, w io.Writer, interval time.Duration) error {
	engine := newEngine(stderrLogger())
	redraw := isTerminalWriter(w)

	err := engine.Run(ctx, interval, func(snap aggregate.Snapshot) {
		if redraw {
			fmt.Fprint(w, "\033[H\033[2J")
		}
		fmt.Fprintf(w, "%s  %s\n\n", ui.Bold("AGENT MONITOR"), ui.Dim(snap.TakenAt.Format("15:04:05")))
		if snap.Err != nil {
			fmt.Fprintf(w, "%s %v\n", ui.Red("!"), snap.Err)
		}
		printTable(w, render.Build(snap, stalenessPolicy()), redraw)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runDashboard(ctx context.Context, interval time.Duration) error {
	logger, closeLog, err := logging.OpenFile(cfg.LogFile, verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := newEngine(logger)
	changes, err := aggregate.Watch(ctx, cfg.StatusDir, logger)
	if err != nil {
		logger.Warn("file watching disabled, relying on polling", "error", err)
		changes = nil
	}

	model := cockpit.NewModel(cockpit.Options{
		Engine:       engine,
		Policy:       stalenessPolicy(),
		PollInterval: interval,
		Changes:      changes,
		InTmux:       os.Getenv("TMUX") != "" && shell.CommandExists("tmux"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}

	m, ok := finalModel.(cockpit.Model)
	if !ok {
		return nil
	}
	if path := m.OpenPath(); path != "" {
		fmt.Printf("cd %s\n", path)
	}
	return nil
}

// printTable writes one row per worker. Colour is used only when colored is set.
func printTable(w io.Writer, m render.Model, colored bool) {
	if m.Empty() {
		if m.Err != nil {
			return
		}
		fmt.Fprintln(w, "No agents reporting.")
		fmt.Fprintln(w, "Run 'agentmon hooks install' in a project, or 'agentmon demo' for sample data.")
		return
	}

	headers := []string{"PROJECT", "WORKER", "STATUS", "AGE", "SUMMARY"}
	var table *ui.Table
	if colored {
		table = ui.NewTable(w, headers)
	} else {
		table = ui.NewPlainTable(w)
		table.AddRow(headers)
	}

	for _, g := range m.Groups {
		for _, row := range g.Rows {
			label := row.State.Label()
			stateColor := ui.StateTableColor(row.State)
			if row.Stale {
				label = "STALE"
				stateColor = ui.TableColor.Dim
			}
			cells := []string{g.Display, row.Worker, label, row.AgeDisplay, row.Summary}
			if colored {
				table.AddColoredRow(cells, []tablewriter.Colors{
					ui.TableColor.Cyan,
					ui.TableColor.Normal,
					stateColor,
					ui.TableColor.Dim,
					ui.TableColor.Normal,
				})
			} else {
				table.AddRow(cells)
			}
		}
	}
	table.Render()

	if footer := m.Totals.Footer(); footer != "" {
		fmt.Fprintf(w, "\n%s\n", footer)
	}
	if m.Truncated {
		fmt.Fprintln(w, "(entry limit reached, some records not shown)")
	}
	if m.Skipped > 0 {
		fmt.Fprintf(w, "(%d unreadable records skipped)\n", m.Skipped)
	}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd()) && !noColor
}
