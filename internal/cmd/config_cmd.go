package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/undrift/agentmon/internal/config"
	"github.com/undrift/agentmon/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `View and create agentmon configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: defaults, overridden by the config
file, then AGENT_MONITOR_* environment variables, then flags.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long:  `Write the default configuration to the config file so it can be edited.`,
	Example: `  agentmon config init            # ~/.config/agentmon/config.yaml
  agentmon config init --force    # Overwrite an existing file`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setupOutput,
	RunE:              runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	source := cfg.ConfigPath()
	if source == "" {
		source = "(none, using defaults)"
	}

	ui.SubHeader("Sources")
	ui.KeyValue("Config File", source)
	ui.KeyValue("Status Dir Env", envOrNone(config.LegacyDirEnv))
	ui.NewLine()

	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	ui.SubHeader("Effective Configuration")
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(ui.Output, "  %s\n", line)
	}
	return nil
}

func envOrNone(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return "(unset)"
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	path = config.ExpandHome(path)

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if err := config.Write(path, config.DefaultConfig()); err != nil {
		return err
	}
	ui.Successf("Wrote %s", path)
	return nil
}
