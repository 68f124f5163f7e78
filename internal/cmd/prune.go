package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/status"
	"github.com/undrift/agentmon/internal/ui"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete status records that have not been updated in a long time",
	Long: `Delete status records older than the reap threshold (24h by default).

The monitor already hides these records; prune removes the files so the
status directory does not grow without bound. Records without a usable
timestamp are left alone.`,
	Example: `  agentmon prune                   # Use the configured reap threshold
  agentmon prune --older-than 2h   # Anything quiet for two hours
  agentmon prune -y                # Skip confirmation`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "age threshold (default is the configured reap_after)")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	olderThan := cfg.ReapAfter
	if pruneOlderThan > 0 {
		olderThan = pruneOlderThan
	}
	now := time.Now()
	store := newStore()

	candidates, err := pruneCandidates(store, olderThan, now)
	if err != nil {
		return fmt.Errorf("failed to scan status records: %w", err)
	}
	if len(candidates) == 0 {
		ui.Info("Nothing to prune")
		return nil
	}

	ui.SubHeader("Stale records")
	for _, rec := range candidates {
		ui.List(fmt.Sprintf("%s %s", rec.Key(), ui.Dim("updated "+ageOf(rec, now))))
	}
	ui.NewLine()

	if !IsYes() {
		ok, err := ui.PromptYesNo(fmt.Sprintf("Delete %d record(s)?", len(candidates)), false)
		if err != nil && !errors.Is(err, ui.ErrCancelled) {
			return err
		}
		if !ok {
			ui.Info("Cancelled")
			return nil
		}
	}

	sp := ui.NewSpinner("Pruning status records")
	sp.Start()
	removed, err := store.Prune(olderThan, now)
	if err != nil {
		err = fmt.Errorf("pruned %d record(s) before failing: %w", len(removed), err)
	}
	return sp.Finish(err, fmt.Sprintf("Pruned %d record(s) older than %s", len(removed), humanDuration(olderThan)))
}

// humanDuration renders d the way humanize renders ages, e.g. "1 day".
func humanDuration(d time.Duration) string {
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now.Add(-d), now, "", ""))
}

// pruneCandidates lists the records Prune would delete, without deleting them.
func pruneCandidates(store *status.Store, olderThan time.Duration, now time.Time) ([]status.Record, error) {
	listing, err := store.Entries(0)
	if err != nil {
		return nil, err
	}

	var out []status.Record
	for _, e := range listing.Entries {
		rec, err := store.Read(e, now)
		if err != nil || rec.TimestampInferred {
			continue
		}
		if rec.Age(now) > olderThan {
			out = append(out, rec)
		}
	}
	return out, nil
}
