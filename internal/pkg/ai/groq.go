package ai

import (
	"context"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

const (
	// DefaultGroqModel is the default model for Groq.
	DefaultGroqModel = "mixtral-8x7b-32768"

	// DefaultGroqEndpoint is the OpenAI-compatible API base URL for Groq.
	DefaultGroqEndpoint = "https://api.groq.com/openai/v1"
)

// GroqProvider implements the Provider interface for Groq.
// Groq exposes an OpenAI-compatible API, so it reuses the go-openai client.
type GroqProvider struct {
	*chatCompletionClient
}

// NewGroqProvider creates a new Groq provider bound to httpClient.
func NewGroqProvider(config ProviderConfig, httpClient HTTPDoer) (*GroqProvider, error) {
	if config.APIKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(string(KindGroq))
	}
	config.Kind = KindGroq
	config.Model = resolveModel(config.Model, DefaultGroqModel)
	if config.Endpoint == "" {
		config.Endpoint = DefaultGroqEndpoint
	}

	return &GroqProvider{newChatCompletionClient(string(KindGroq), config, httpClient)}, nil
}

// Name returns the provider name.
func (p *GroqProvider) Name() string {
	return string(KindGroq)
}

// Model returns the resolved model name.
func (p *GroqProvider) Model() string {
	return p.config.Model
}

// Explain summarizes change using the Groq chat completions API.
func (p *GroqProvider) Explain(ctx context.Context, change git.ChangeContext) (string, error) {
	return p.explain(ctx, change)
}
