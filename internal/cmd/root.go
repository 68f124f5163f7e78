// Package cmd implements the agentmon CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/aggregate"
	"github.com/undrift/agentmon/internal/config"
	"github.com/undrift/agentmon/internal/logging"
	"github.com/undrift/agentmon/internal/render"
	"github.com/undrift/agentmon/internal/status"
	"github.com/undrift/agentmon/internal/ui"
)

var (
	version   = "dev"
	cfgFile   string
	statusDir string
	verbose   bool
	noColor   bool
	yesFlag   bool

	// cfg is the effective configuration, loaded before any command runs.
	cfg = config.DefaultConfig()
)

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "agentmon",
	Short: "Monitor the status of coding agents across projects and worktrees",
	Long: `agentmon shows, in one place, what every coding agent you have running
is doing: which ones are working, which are waiting for you, which have
failed and which are done.

Agents report through a hook (agentmon hook) or by hand (agentmon report);
the monitor reads their status records and groups them by project.

Get started:
  agentmon hooks install   Register the reporter hook in this project
  agentmon demo            Write sample records to try the monitor
  agentmon                 Open the live dashboard
  agentmon --once          Print the current status table and exit`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runMonitor,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/agentmon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&statusDir, "status-dir", "", "directory holding status records (default is ~/.agent-monitor/status)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "skip confirmation prompts")

	addMonitorFlags(rootCmd)

	// Version flag
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("agentmon version {{.Version}}\n")
}

// setupOutput applies the output flags. It runs before every command.
func setupOutput(cmd *cobra.Command, args []string) error {
	if noColor {
		os.Setenv("NO_COLOR", "1")
		ui.DisableColor()
	}
	if verbose {
		os.Setenv("AGENTMON_DEBUG", "1")
	}
	return nil
}

func loadConfig(cmd *cobra.Command, args []string) error {
	_ = setupOutput(cmd, args)

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if statusDir != "" {
		loaded.StatusDir = config.ExpandHome(statusDir)
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	ui.Debugf("status dir: %s", cfg.StatusDir)
	return nil
}

// IsYes returns whether the --yes flag is set (skip confirmations).
func IsYes() bool {
	return yesFlag
}

func newStore() *status.Store {
	return status.NewStore(cfg.StatusDir)
}

func newEngine(logger *slog.Logger) *aggregate.Engine {
	return aggregate.New(newStore(), aggregate.Options{
		ReapAfter:  cfg.ReapAfter,
		MaxEntries: cfg.MaxEntries,
		Hide:       cfg.Hide,
	}, logger)
}

func stalenessPolicy() render.StalenessPolicy {
	return render.StalenessPolicy{StaleAfter: cfg.StaleAfter}
}

// stderrLogger logs to the terminal; it is used by commands that do not own the screen.
func stderrLogger() *slog.Logger {
	return logging.New(os.Stderr, verbose)
}
