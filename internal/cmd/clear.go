package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/status"
	"github.com/undrift/agentmon/internal/ui"
)

var clearCmd = &cobra.Command{
	Use:   "clear [repo] [worktree]",
	Short: "Remove a worker's status record",
	Long: `Remove the status record for one worker.

With one argument the worker is looked up in the default project. With no
arguments, pick the worker from a list.`,
	Example: `  agentmon clear feature-auth          # Default project
  agentmon clear webapp feature-auth   # Specific project
  agentmon clear                       # Interactive selection`,
	Args: cobra.MaximumNArgs(2),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

// parseClearArgs accepts "[repo] worktree".
func parseClearArgs(args []string) (project, worker string, err error) {
	switch len(args) {
	case 1:
		return status.DefaultProject, args[0], nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("usage: agentmon clear [repo] <worktree>")
	}
}

func runClear(cmd *cobra.Command, args []string) error {
	var project, worker string
	if len(args) == 0 {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("usage: agentmon clear [repo] <worktree>")
		}
		var err error
		project, worker, err = selectWorker()
		if err != nil {
			return err
		}
		if worker == "" {
			return nil
		}
	} else {
		var err error
		project, worker, err = parseClearArgs(args)
		if err != nil {
			return err
		}
	}

	if !IsYes() && len(args) == 0 {
		ok, err := ui.PromptYesNo(fmt.Sprintf("Clear %s/%s?", project, worker), false)
		if err != nil && !errors.Is(err, ui.ErrCancelled) {
			return err
		}
		if !ok {
			ui.Info("Cancelled")
			return nil
		}
	}

	removed, err := newStore().Clear(project, worker)
	if err != nil {
		return fmt.Errorf("failed to clear status: %w", err)
	}
	if removed {
		ui.Successf("Cleared status for '%s/%s'", project, worker)
	} else {
		ui.Warningf("No status record found for '%s/%s'", project, worker)
	}
	return nil
}

// selectWorker lists every worker in the store and returns the one picked.
// An empty worker means the user backed out.
func selectWorker() (string, string, error) {
	snap := newEngine(stderrLogger()).Poll()
	if snap.Err != nil {
		return "", "", snap.Err
	}
	recs := workerChoices(snap)
	if len(recs) == 0 {
		ui.Info("No agents reporting.")
		return "", "", nil
	}

	items := make([]ui.SelectItem, len(recs))
	for i, rec := range recs {
		items[i] = ui.SelectItem{
			Name:        rec.Key(),
			Description: fmt.Sprintf("%s, %s", rec.State.Label(), ageOf(rec, snap.TakenAt)),
		}
	}

	idx, err := ui.PromptSelectDetailed("Select a worker to clear", items)
	if errors.Is(err, ui.ErrCancelled) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return recs[idx].Project, recs[idx].Worker, nil
}

// workerChoices flattens a snapshot in project then worker order.
func workerChoices(snap aggregate.Snapshot) []status.Record {
	var recs []status.Record
	for _, project := range snap.ProjectKeys() {
		recs = append(recs, snap.Projects[project]...)
	}
	return recs
}

// ageOf renders a record age for messages, e.g. "3 days ago".
func ageOf(rec status.Record, now time.Time) string {
	return humanize.RelTime(rec.UpdatedAt, now, "ago", "from now")
}
