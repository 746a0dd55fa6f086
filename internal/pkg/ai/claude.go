package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

const (
	// DefaultClaudeModel is the default model for Claude.
	DefaultClaudeModel = "claude-3-5-sonnet-20241022"

	// DefaultClaudeEndpoint is the Anthropic API base URL; the client
	// appends /messages.
	DefaultClaudeEndpoint = "https://api.anthropic.com/v1"

	// ClaudeMaxTokens caps the length of the generated summary.
	ClaudeMaxTokens = 4096
)

// ClaudeProvider implements the Provider interface for Anthropic Claude on
// top of a langchaingo model.
type ClaudeProvider struct {
	llm            llms.Model
	config         ProviderConfig
	promptTemplate *PromptTemplate
}

// NewClaudeProvider creates a new Claude provider bound to httpClient.
func NewClaudeProvider(config ProviderConfig, httpClient HTTPDoer) (*ClaudeProvider, error) {
	if config.APIKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(string(KindClaude))
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	config.Kind = KindClaude
	config.Model = resolveModel(config.Model, DefaultClaudeModel)
	if config.Endpoint == "" {
		config.Endpoint = DefaultClaudeEndpoint
	}

	llm, err := anthropic.New(
		anthropic.WithToken(config.APIKey),
		anthropic.WithModel(config.Model),
		anthropic.WithBaseURL(config.Endpoint),
		anthropic.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create Claude client")
	}

	return &ClaudeProvider{
		llm:            llm,
		config:         config,
		promptTemplate: NewPromptTemplate(),
	}, nil
}

// Name returns the provider name.
func (p *ClaudeProvider) Name() string {
	return string(KindClaude)
}

// Model returns the resolved model name.
func (p *ClaudeProvider) Model() string {
	return p.config.Model
}

// Explain summarizes change using the Claude messages API. The system
// prompt is sent in the top-level system field and an empty content list
// yields "".
func (p *ClaudeProvider) Explain(ctx context.Context, change git.ChangeContext) (string, error) {
	userPrompt, err := p.promptTemplate.RenderUserPrompt(change)
	if err != nil {
		return "", apperrors.NewRequestFailedError(p.Name(), err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, p.promptTemplate.GetSystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	apperrors.LogAPIRequest(p.Name(), p.config.Endpoint, p.config.Model, len(userPrompt))
	startTime := time.Now()

	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(ClaudeMaxTokens))
	if err != nil && !errors.Is(err, anthropic.ErrEmptyResponse) {
		return "", apperrors.NewRequestFailedError(p.Name(), err)
	}

	text := ""
	if resp != nil && len(resp.Choices) > 0 {
		text = resp.Choices[0].Content
	}
	apperrors.LogAPIResponse(p.Name(), http.StatusOK, len(text), time.Since(startTime))

	return text, nil
}
