package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumen-cli/lumen/internal/pkg/config"
	"github.com/lumen-cli/lumen/internal/pkg/security"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lumen configuration",
		Long: `Manage lumen configuration settings.

Use subcommands to initialize, view, or modify configuration values.
Configuration is stored in ~/.lumen/config.yaml by default.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigGetCmd())
	configCmd.AddCommand(newConfigListCmd())

	return configCmd
}

// displayValue masks secrets before they are printed.
func displayValue(key, value string) string {
	if strings.Contains(strings.ToLower(key), "api_key") && value != "" {
		return security.MaskAPIKey(value)
	}
	return value
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long: `Create a new configuration file with default values.

The file is created with permissions 0600 (user read/write only) as it may
contain API keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}

			if err := mgr.Init(); err != nil {
				return err
			}

			newUIManager(cmd, true).ShowSuccess("Configuration file created at " + mgr.GetConfigPath())
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by key, creating the file if needed.

Keys: ` + strings.Join(config.Keys(), ", ") + `

Examples:
  lumen config set provider.name claude
  lumen config set provider.api_key sk-ant-xxx
  lumen config set provider.model claude-3-5-haiku-20241022
  lumen config set history.enabled false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}

			if err := mgr.Set(key, value); err != nil {
				return err
			}

			newUIManager(cmd, true).ShowSuccess(fmt.Sprintf("Set %s = %s", key, displayValue(key, value)))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}

			value, err := mgr.Get(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), displayValue(args[0], value))
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `Display all current configuration values.

API keys are masked, showing only the last 4 characters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range config.Keys() {
				value, err := mgr.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s = %s\n", key, displayValue(key, value))
			}
			return nil
		},
	}
}
