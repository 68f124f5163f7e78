package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/claude"
	"github.com/undrift/agentmon/internal/config"
	"github.com/undrift/agentmon/internal/git"
	"github.com/undrift/agentmon/internal/ui"
)

var (
	hooksDir      string
	hooksCommand  string
	hooksRepo     string
	hooksWorktree string
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Register the reporter hook with Claude Code",
	Long:  `Manage the Claude Code hook settings that run 'agentmon hook'.`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Add the agentmon hook to a project's .claude/settings.json",
	Long: `Add 'agentmon hook' to every hook event agentmon understands in the
project's .claude/settings.json. Existing settings and hooks are kept, and
events that already run agentmon are left alone.

With --repo or --worktree, also pin the names the worker reports under in
.claude/agent-monitor/config.json.`,
	Example: `  agentmon hooks install                        # Current directory
  agentmon hooks install --dir ~/src/webapp
  agentmon hooks install --repo webapp --worktree feature-auth`,
	Args: cobra.NoArgs,
	RunE: runHooksInstall,
}

var hooksPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the hook settings block",
	Long:  `Print the hooks block to merge into a Claude Code settings file by hand.`,
	Args:  cobra.NoArgs,
	RunE:  runHooksPrint,
}

func init() {
	hooksCmd.PersistentFlags().StringVar(&hooksCommand, "command", claude.DefaultHookCommand, "command Claude Code runs for each event")
	hooksInstallCmd.Flags().StringVar(&hooksDir, "dir", "", "project directory (default is the current directory)")
	hooksInstallCmd.Flags().StringVar(&hooksRepo, "repo", "", "project name to report under")
	hooksInstallCmd.Flags().StringVar(&hooksWorktree, "worktree", "", "worker name to report under")

	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksPrintCmd)
	rootCmd.AddCommand(hooksCmd)
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	dir := hooksDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(config.ExpandHome(dir))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", hooksDir, err)
	}

	path, added, err := claude.InstallHooks(dir, hooksCommand)
	if err != nil {
		return err
	}
	if added == 0 {
		ui.Infof("Hooks already installed in %s", path)
	} else {
		ui.Successf("Added %d hook event(s) to %s", added, path)
	}

	if hooksRepo != "" || hooksWorktree != "" {
		localPath, err := config.WriteLocal(dir, config.LocalConfig{Repo: hooksRepo, Worktree: hooksWorktree})
		if err != nil {
			return err
		}
		ui.Successf("Wrote identity to %s", localPath)
	}

	if hooksRepo == "" && !git.IsRepository(dir) {
		ui.Warning("Not a git repository: this worker reports under the default project unless --repo is set")
	}

	id := git.ResolveIdentity(dir)
	ui.KeyValue("Reports as", fmt.Sprintf("%s/%s", id.Project, id.Worker))
	ui.KeyValue("Named by", string(id.Source))
	return nil
}

func runHooksPrint(cmd *cobra.Command, args []string) error {
	data, err := claude.SettingsSnippet(hooksCommand)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
