package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lumen-cli/lumen/internal/app"
	"github.com/lumen-cli/lumen/internal/pkg/ai"
	"github.com/lumen-cli/lumen/internal/pkg/config"
	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
	"github.com/lumen-cli/lumen/internal/pkg/history"
	"github.com/lumen-cli/lumen/internal/pkg/security"
	"github.com/lumen-cli/lumen/internal/pkg/ui"
)

// DefaultCommitRef is explained when no SHA is given.
const DefaultCommitRef = "HEAD"

// ExplainFlags holds the flags for the explain command.
type ExplainFlags struct {
	Staged bool
}

// explainTarget is what a single explain invocation asks about.
type explainTarget struct {
	staged bool
	ref    string
}

// resolveExplainTarget validates the positional arguments against --staged.
func resolveExplainTarget(args []string, staged bool) (explainTarget, error) {
	if staged {
		if len(args) > 0 {
			return explainTarget{}, apperrors.New(apperrors.ErrInvalidArguments, "a commit SHA cannot be combined with --staged").
				WithSuggestion("Use either 'lumen explain <sha>' or 'lumen explain --staged'")
		}
		return explainTarget{staged: true}, nil
	}
	if len(args) == 0 {
		return explainTarget{ref: DefaultCommitRef}, nil
	}
	return explainTarget{ref: args[0]}, nil
}

// NewExplainCmd creates the explain command.
func NewExplainCmd() *cobra.Command {
	flags := &ExplainFlags{}

	cmd := &cobra.Command{
		Use:   "explain [sha]",
		Short: "Explain a commit or the staged changes",
		Long: `Explain what a commit does, or what the currently staged changes do.

The commit message and diff are sent to the configured AI provider. The
first request to a remote provider shows a notice that the diff leaves
this machine.

Examples:
  lumen explain                 # Explain HEAD
  lumen explain 3f2a9c1         # Explain a specific commit
  lumen explain --staged        # Explain staged changes
  lumen explain -p ollama HEAD  # Use a local model for this run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.Staged, "staged", "s", false, "Explain staged changes instead of a commit")

	return cmd
}

func runExplain(cmd *cobra.Command, args []string, flags *ExplainFlags) error {
	target, err := resolveExplainTarget(args, flags.Staged)
	if err != nil {
		return err
	}

	cfgMgr, err := newConfigManager(cmd)
	if err != nil {
		return err
	}

	interactive := isInteractive()
	providerFlag, _ := cmd.Flags().GetString("provider")
	if !cfgMgr.ConfigExists() && interactive && providerFlag == "" {
		if err := ui.RunInteractiveSetup(cfgMgr); err != nil {
			return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "setup failed")
		}
	}

	cfg, err := loadConfig(cmd, cfgMgr)
	if err != nil {
		return err
	}

	providerCfg, err := app.ProviderConfigFrom(cfg)
	if err != nil {
		return err
	}

	uiMgr := newUIManager(cmd, cfg.UI.ColorEnabled)

	if providerCfg.Kind.IsRemote() && !cfg.Security.WarningAcknowledged {
		if err := acknowledgeFirstUse(cmd, cfgMgr, uiMgr, providerCfg.Kind); err != nil {
			return err
		}
	}

	apperrors.Debug("Using provider: %s", providerCfg.Kind)
	if providerCfg.APIKey != "" {
		apperrors.Debug("API key: %s", security.MaskAPIKey(providerCfg.APIKey))
	}

	var historyMgr history.Manager
	if cfg.History.Enabled {
		historyMgr = history.NewFileManager(cfg.History.FilePath, cfg.History.MaxEntries)
	}

	service := app.NewExplainService(
		git.NewExtractor(git.NewClient()),
		ai.NewProvider,
		providerCfg,
		&http.Client{},
		historyMgr,
	)

	spinner := uiMgr.ShowSpinner(fmt.Sprintf("Asking %s...", providerCfg.Kind))
	spinner.Start()

	var result *app.Result
	if target.staged {
		result, err = service.ExplainStaged(cmd.Context())
	} else {
		result, err = service.ExplainCommit(cmd.Context(), target.ref)
	}
	spinner.Stop()

	if err != nil {
		return err
	}

	return uiMgr.DisplayExplanation(result.Change, result.Explanation)
}

// acknowledgeFirstUse shows the data-egress notice and persists the answer.
func acknowledgeFirstUse(cmd *cobra.Command, cfgMgr config.Manager, uiMgr ui.Manager, kind ai.Kind) error {
	errOut := cmd.ErrOrStderr()
	fmt.Fprint(errOut, security.FirstUseWarning(string(kind)))

	confirmed, err := uiMgr.PromptConfirm("Do you understand and wish to continue?")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidArguments, "failed to read confirmation")
	}
	if !confirmed {
		return apperrors.New(apperrors.ErrInvalidArguments, "notice not acknowledged, nothing was sent")
	}

	if err := cfgMgr.AcknowledgeSecurityWarning(); err != nil {
		apperrors.Warn("Failed to save acknowledgment: %v", err)
	}

	fmt.Fprintln(errOut, security.FirstUseAcknowledgment)
	fmt.Fprintln(errOut)
	return nil
}
