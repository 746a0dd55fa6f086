package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumen-cli/lumen/internal/pkg/config"
	"github.com/lumen-cli/lumen/internal/pkg/history"
)

// DefaultHistoryLimit is the default number of history entries to display.
const DefaultHistoryLimit = 20

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View previous explanations",
		Long: `View the explanations lumen has produced, oldest first.

Examples:
  lumen history           # Show the last 20 entries
  lumen history --limit 5 # Show the last 5 entries
  lumen history clear     # Clear all history`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "l", DefaultHistoryLimit, "Number of entries to display (0 for all)")

	historyCmd.AddCommand(newHistoryClearCmd())

	return historyCmd
}

func openHistory(cmd *cobra.Command) (*history.FileManager, *config.Config, error) {
	cfgMgr, err := newConfigManager(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(cmd, cfgMgr)
	if err != nil {
		return nil, nil, err
	}
	return history.NewFileManager(cfg.History.FilePath, cfg.History.MaxEntries), cfg, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	historyMgr, cfg, err := openHistory(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !cfg.History.Enabled {
		fmt.Fprintln(out, "History is disabled. Enable it with: lumen config set history.enabled true")
	}

	entries, err := historyMgr.List(limit)
	if err != nil {
		return err
	}

	newUIManager(cmd, cfg.UI.ColorEnabled).DisplayHistory(entries)
	return nil
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all history entries",
		Long: `Delete all entries from the history file.

This action cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			historyMgr, cfg, err := openHistory(cmd)
			if err != nil {
				return err
			}

			if err := historyMgr.Clear(); err != nil {
				return err
			}

			newUIManager(cmd, cfg.UI.ColorEnabled).ShowSuccess("Cleared history at " + historyMgr.FilePath())
			return nil
		},
	}
}
