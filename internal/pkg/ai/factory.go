package ai

import (
	"fmt"
	"net/http"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
)

// NewProvider selects and constructs the adapter for cfg.Kind, bound to
// client. Selection performs no network activity. Kinds that need a
// credential fail with a MissingAPIKey error when cfg.APIKey is empty.
func NewProvider(cfg ProviderConfig, client HTTPDoer) (Provider, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var (
		provider Provider
		err      error
	)

	switch cfg.Kind {
	case KindOpenAI:
		var p *OpenAIProvider
		if p, err = NewOpenAIProvider(cfg, client); err == nil {
			provider = p
		}
	case KindGroq:
		var p *GroqProvider
		if p, err = NewGroqProvider(cfg, client); err == nil {
			provider = p
		}
	case KindClaude:
		var p *ClaudeProvider
		if p, err = NewClaudeProvider(cfg, client); err == nil {
			provider = p
		}
	case KindPhind:
		provider = NewPhindProvider(cfg, client)
	case KindOllama:
		var p *OllamaProvider
		if p, err = NewOllamaProvider(cfg, client); err == nil {
			provider = p
		}
	default:
		err = apperrors.NewInvalidConfigError(fmt.Sprintf("unknown provider: %q", cfg.Kind)).
			WithContext("provider", string(cfg.Kind))
	}

	if err != nil {
		return nil, err
	}
	return provider, nil
}
