// Package cmd contains the CLI command definitions for lumen.
package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lumen-cli/lumen/internal/pkg/config"
	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/ui"
)

// NewRootCmd creates the root command for the lumen CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lumen",
		Short: "Explain git commits and staged changes with AI",
		Long: `lumen explains what a git commit, or the changes currently staged,
actually do.

It collects the commit message and diff from git, sends them to a
configurable AI provider (Phind, OpenAI, Groq, Claude or a local Ollama)
and prints the explanation.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			apperrors.SetVerbose(verbose)
		},
	}

	rootCmd.SetVersionTemplate(`lumen {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.lumen/config.yaml)")
	rootCmd.PersistentFlags().StringP("provider", "p", "", "AI provider to use (phind, openai, groq, claude, ollama)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "AI model to use")
	rootCmd.PersistentFlags().StringP("api-key", "k", "", "API key for the selected provider")

	rootCmd.AddCommand(NewExplainCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewHistoryCmd())

	return rootCmd
}

// newConfigManager opens the config file named by --config, or the default one.
func newConfigManager(cmd *cobra.Command) (*config.ViperManager, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		apperrors.Debug("Using custom config path: %s", configPath)
	}
	return config.NewManager(configPath)
}

// loadConfig loads the configuration and applies the command-line overrides
// on top of it. Overrides never reach the config file.
func loadConfig(cmd *cobra.Command, cfgMgr *config.ViperManager) (*config.Config, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := cfgMgr.LoadWithTimeout(ctx)
	if err != nil {
		return nil, err
	}

	overrides := config.Overrides{}
	overrides.Provider, _ = cmd.Flags().GetString("provider")
	overrides.Model, _ = cmd.Flags().GetString("model")
	overrides.APIKey, _ = cmd.Flags().GetString("api-key")
	overrides.Apply(cfg)

	if overrides.Provider != "" {
		apperrors.Debug("Provider overridden via flag: %s", overrides.Provider)
	}
	if overrides.Model != "" {
		apperrors.Debug("Model overridden via flag: %s", overrides.Model)
	}
	return cfg, nil
}

// isInteractive reports whether both stdin and stdout are terminals.
var isInteractive = func() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

// newUIManager returns the styled manager on a terminal and plain output
// otherwise. Both write to the command's stdout.
func newUIManager(cmd *cobra.Command, colorEnabled bool) ui.Manager {
	if isInteractive() {
		return ui.NewDefaultManager(cmd.OutOrStdout(), colorEnabled)
	}
	return ui.NewNonInteractiveManager(cmd.OutOrStdout())
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
