package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/config"
	"github.com/undrift/agentmon/internal/status"
	"github.com/undrift/agentmon/internal/ui"
)

var reportPath string

var reportCmd = &cobra.Command{
	Use:   "report [repo] <worktree> <status> [summary]",
	Short: "Report an agent's status by hand",
	Long: `Write a status record for one worker.

The repo is optional: when the second argument is already a valid status,
the record goes under the default project. Valid statuses are running,
waiting_input, idle and error.`,
	Example: `  agentmon report feature-auth running "Refactoring auth"
  agentmon report webapp feature-auth waiting_input "OAuth or JWT?"
  agentmon report webapp hotfix error "Build failed" --path ~/src/webapp-hotfix`,
	Args: cobra.RangeArgs(2, 4),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportPath, "path", "", "working directory of the worker")
	rootCmd.AddCommand(reportCmd)
}

// reportArgs is the parsed positional form of report.
type reportArgs struct {
	Repo     string
	Worktree string
	State    status.State
	Summary  string
}

// parseReportArgs accepts "[repo] worktree status [summary]". If the second
// argument is a valid status, no repo was given.
func parseReportArgs(args []string) (reportArgs, error) {
	if len(args) < 2 {
		return reportArgs{}, fmt.Errorf("usage: agentmon report [repo] <worktree> <status> [summary]")
	}

	if st, err := status.ParseState(args[1]); err == nil {
		if len(args) > 3 {
			return reportArgs{}, fmt.Errorf("too many arguments: quote the summary")
		}
		r := reportArgs{Repo: status.DefaultProject, Worktree: args[0], State: st}
		if len(args) > 2 {
			r.Summary = args[2]
		}
		return r, nil
	}

	if len(args) >= 3 {
		if st, err := status.ParseState(args[2]); err == nil {
			r := reportArgs{Repo: args[0], Worktree: args[1], State: st}
			if len(args) > 3 {
				r.Summary = args[3]
			}
			return r, nil
		}
	}

	return reportArgs{}, fmt.Errorf("%w: must be one of %s", status.ErrInvalidState, stateList())
}

func stateList() string {
	var names []string
	for _, s := range status.States() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func runReport(cmd *cobra.Command, args []string) error {
	r, err := parseReportArgs(args)
	if err != nil {
		return err
	}

	path := reportPath
	if path != "" {
		if abs, err := filepath.Abs(config.ExpandHome(path)); err == nil {
			path = abs
		}
	}

	file, err := newStore().Write(status.Record{
		Project:          r.Repo,
		Worker:           r.Worktree,
		State:            r.State,
		Summary:          r.Summary,
		WorkingDirectory: path,
		UpdatedAt:        time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to report status: %w", err)
	}

	ui.Successf("Reported %s/%s %s", r.Repo, r.Worktree, ui.StateBadge(r.State))
	ui.Debugf("wrote %s", file)
	return nil
}
