package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/classify"
	"github.com/undrift/agentmon/internal/config"
	"github.com/undrift/agentmon/internal/git"
	"github.com/undrift/agentmon/internal/logging"
	"github.com/undrift/agentmon/internal/status"
)

// projectDirEnv is set by Claude Code for every hook it runs.
const projectDirEnv = "CLAUDE_PROJECT_DIR"

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Record an agent's status from a Claude Code hook payload",
	Long: `Read one Claude Code hook payload from stdin, classify it and update the
status record for the worker it came from.

The worker is named by .claude/agent-monitor/config.json in the project
directory if present, otherwise by its git worktree, otherwise by the
directory name. A SessionEnd event removes the record.

This command always exits 0 so it can never block the agent. Problems are
written to the configured log file, or to stderr with --verbose.`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: loadConfigLenient,
	RunE:              runHookCmd,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

// loadConfigLenient falls back to the defaults when the configuration is
// broken, so the hook keeps reporting.
func loadConfigLenient(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd, args); err != nil {
		cfg = config.DefaultConfig()
		if statusDir != "" {
			cfg.StatusDir = statusDir
		}
	}
	return nil
}

func runHookCmd(cmd *cobra.Command, args []string) error {
	logger := logging.Discard()
	if verbose {
		logger = stderrLogger()
	}
	if cfg.LogFile != "" {
		fileLogger, closeLog, err := logging.OpenFile(cfg.LogFile, verbose)
		if err == nil {
			defer closeLog()
			logger = fileLogger
		}
	}

	if err := runHook(cmd.InOrStdin(), newStore(), os.Getenv(projectDirEnv), logger); err != nil {
		logger.Warn("hook failed", "error", err)
	}
	return nil
}

// runHook handles one payload. Payloads without a session id are ignored.
// Unknown events leave the worker's record as it is.
func runHook(in io.Reader, store *status.Store, projectDir string, logger *slog.Logger) error {
	p, err := classify.DecodeHook(in)
	if err != nil {
		return err
	}
	if p.SessionID == "" {
		logger.Debug("ignoring hook payload without session id", "event", classify.Name(p.Event))
		return nil
	}
	if _, ok := p.Event.(classify.Unknown); ok {
		logger.Debug("ignoring unknown hook event", "event", classify.Name(p.Event))
		return nil
	}

	dir := projectDir
	if dir == "" {
		dir = p.Cwd
	}
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	id := git.ResolveIdentity(dir)

	recent, err := classify.RecentMessages(p.TranscriptPath, classify.DefaultRecentMessages)
	if err != nil {
		logger.Debug("failed to read transcript", "path", p.TranscriptPath, "error", err)
		recent = nil
	}

	ev := p.Event
	if _, ok := ev.(classify.Stop); ok && len(recent) > 0 {
		ev = classify.AgentMessage{Text: recent[len(recent)-1]}
		recent = recent[:len(recent)-1]
	}

	res := classify.Classify(ev, recent)
	logger.Debug("classified hook event",
		"event", classify.Name(p.Event),
		"project", id.Project,
		"worker", id.Worker,
		"source", id.Source,
		"state", res.State,
		"clear", res.Clear,
	)

	if res.Clear {
		if _, err := store.Clear(id.Project, id.Worker); err != nil {
			return fmt.Errorf("failed to clear %s/%s: %w", id.Project, id.Worker, err)
		}
		return nil
	}

	_, err = store.Write(status.Record{
		Project:          id.Project,
		Worker:           id.Worker,
		State:            res.State,
		Summary:          res.Summary,
		WorkingDirectory: dir,
		SessionID:        p.SessionID,
		UpdatedAt:        time.Now(),
	})
	return err
}
