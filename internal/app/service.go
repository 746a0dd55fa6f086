// Package app contains the application layer with business orchestration logic.
package app

import (
	"context"
	"net/http"

	"github.com/lumen-cli/lumen/internal/pkg/ai"
	"github.com/lumen-cli/lumen/internal/pkg/config"
	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
	"github.com/lumen-cli/lumen/internal/pkg/history"
)

// ChangeSource produces the change contexts to explain.
type ChangeSource interface {
	FromCommit(ctx context.Context, sha string) (*git.Commit, error)
	FromStaged(ctx context.Context) (*git.StagedChanges, error)
}

// Selector turns a provider configuration into a ready adapter.
type Selector func(cfg ai.ProviderConfig, client ai.HTTPDoer) (ai.Provider, error)

// Result is one produced explanation together with what it explains.
type Result struct {
	Change      git.ChangeContext
	Explanation string
	Provider    string
	Model       string
}

// ExplainService orchestrates the explain workflow:
// extract → select → explain → record.
type ExplainService struct {
	source      ChangeSource
	selectFn    Selector
	providerCfg ai.ProviderConfig
	client      ai.HTTPDoer
	historyMgr  history.Manager
}

// NewExplainService creates an ExplainService. A nil selector uses
// ai.NewProvider; a nil history manager disables recording.
func NewExplainService(
	source ChangeSource,
	selectFn Selector,
	providerCfg ai.ProviderConfig,
	client ai.HTTPDoer,
	historyMgr history.Manager,
) *ExplainService {
	if selectFn == nil {
		selectFn = ai.NewProvider
	}
	return &ExplainService{
		source:      source,
		selectFn:    selectFn,
		providerCfg: providerCfg,
		client:      client,
		historyMgr:  historyMgr,
	}
}

// ExplainCommit explains the commit sha resolves to.
func (s *ExplainService) ExplainCommit(ctx context.Context, sha string) (*Result, error) {
	commit, err := s.source.FromCommit(ctx, sha)
	if err != nil {
		return nil, err
	}
	return s.explain(ctx, commit, history.KindCommit, commit.FullHash)
}

// ExplainStaged explains the changes currently staged in the index.
func (s *ExplainService) ExplainStaged(ctx context.Context) (*Result, error) {
	staged, err := s.source.FromStaged(ctx)
	if err != nil {
		return nil, err
	}
	return s.explain(ctx, staged, history.KindStaged, "")
}

func (s *ExplainService) explain(ctx context.Context, change git.ChangeContext, kind history.Kind, ref string) (*Result, error) {
	provider, err := s.selectFn(s.providerCfg, s.client)
	if err != nil {
		return nil, err
	}

	explanation, err := provider.Explain(ctx, change)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Change:      change,
		Explanation: explanation,
		Provider:    provider.Name(),
		Model:       provider.Model(),
	}
	s.record(result, kind, ref)
	return result, nil
}

// record saves the result to history. Failures never fail the explanation.
func (s *ExplainService) record(result *Result, kind history.Kind, ref string) {
	if s.historyMgr == nil {
		return
	}

	entry := &history.Entry{
		Kind:        kind,
		Ref:         ref,
		Provider:    result.Provider,
		Model:       result.Model,
		Explanation: result.Explanation,
	}
	if err := s.historyMgr.Save(entry); err != nil {
		apperrors.Warn("failed to record explanation in history: %v", err)
	}
}

// ProviderConfigFrom builds the selection request for cfg, resolving the API
// key from the environment when the configuration has none.
func ProviderConfigFrom(cfg *config.Config) (ai.ProviderConfig, error) {
	kind, err := ai.ParseKind(cfg.Provider.Name)
	if err != nil {
		return ai.ProviderConfig{}, err
	}
	return ai.ProviderConfig{
		Kind:     kind,
		APIKey:   config.ResolveAPIKey(string(kind), cfg.Provider.APIKey),
		Model:    cfg.Provider.Model,
		Endpoint: cfg.Provider.Endpoint,
	}, nil
}

func newDefaultService(providerCfg ai.ProviderConfig) *ExplainService {
	return NewExplainService(git.NewExtractor(git.NewClient()), nil, providerCfg, &http.Client{}, nil)
}

// ExplainCommit explains a commit in the current repository without
// recording history.
func ExplainCommit(ctx context.Context, sha string, providerCfg ai.ProviderConfig) (string, error) {
	result, err := newDefaultService(providerCfg).ExplainCommit(ctx, sha)
	if err != nil {
		return "", err
	}
	return result.Explanation, nil
}

// ExplainStaged explains the staged changes of the current repository
// without recording history.
func ExplainStaged(ctx context.Context, providerCfg ai.ProviderConfig) (string, error) {
	result, err := newDefaultService(providerCfg).ExplainStaged(ctx)
	if err != nil {
		return "", err
	}
	return result.Explanation, nil
}
