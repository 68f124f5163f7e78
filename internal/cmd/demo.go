package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/status"
	"github.com/undrift/agentmon/internal/ui"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Write sample status records to try the monitor",
	Long: `Write a handful of sample status records across three projects, with
workers in every state, so the monitor has something to show.

Existing records with the same names are overwritten. Remove the samples
with 'agentmon clear <repo> <worktree>' or 'agentmon prune'.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	store := newStore()
	records := demoRecords(time.Now())

	sp := ui.NewSpinner("Writing sample records")
	sp.Start()
	err := writeRecords(store, records)
	if err := sp.Finish(err, fmt.Sprintf("Wrote %d sample records to %s", len(records), store.Root())); err != nil {
		return err
	}

	ui.NewLine()
	ui.Info("Now run: agentmon --once")
	ui.Info("Or for live: agentmon")
	return nil
}

func writeRecords(store *status.Store, records []status.Record) error {
	for _, rec := range records {
		if _, err := store.Write(rec); err != nil {
			return fmt.Errorf("failed to write %s: %w", rec.Key(), err)
		}
	}
	return nil
}

// demoRecords returns the sample workers, timestamped relative to now.
func demoRecords(now time.Time) []status.Record {
	type sample struct {
		project, worker string
		state           status.State
		summary         string
		ago             time.Duration
	}
	samples := []sample{
		{"webapp", "feature-auth", status.StateWaitingInput, "Should I use OAuth 2.0 or JWT for the new auth system?", 2 * time.Minute},
		{"webapp", "bugfix-api", status.StateRunning, "Refactoring error handling in api/routes.ts", 30 * time.Second},
		{"webapp", "feature-ui", status.StateIdle, "Completed: Added dark mode toggle component", 5 * time.Minute},
		{"backend-services", "refactor-db", status.StateWaitingInput, "Should I migrate existing user data or create fresh tables?", 8 * time.Minute},
		{"backend-services", "hotfix-login", status.StateError, "Build failed: Cannot find module '@auth/core'", time.Minute},
		{"ml-pipeline", "experiment-bert", status.StateRunning, "Training model: epoch 42/100, loss=0.0234", 10 * time.Second},
		{"ml-pipeline", "data-cleaning", status.StateIdle, "Completed preprocessing of 50k samples", 15 * time.Minute},
	}

	records := make([]status.Record, 0, len(samples))
	for _, s := range samples {
		records = append(records, status.Record{
			Project:          s.project,
			Worker:           s.worker,
			State:            s.state,
			Summary:          s.summary,
			WorkingDirectory: fmt.Sprintf("/home/user/%s-%s", s.project, s.worker),
			UpdatedAt:        now.Add(-s.ago),
		})
	}
	return records
}
