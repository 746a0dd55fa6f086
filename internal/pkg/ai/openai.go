package ai

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

const (
	// DefaultOpenAIModel is the default model for OpenAI.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultOpenAIEndpoint is the default API base URL for OpenAI.
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
)

// chatCompletionClient talks to any OpenAI-compatible chat completions API.
type chatCompletionClient struct {
	name           string
	client         *openai.Client
	config         ProviderConfig
	promptTemplate *PromptTemplate
}

func newChatCompletionClient(name string, config ProviderConfig, httpClient HTTPDoer) *chatCompletionClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.Endpoint
	clientConfig.HTTPClient = httpClient

	return &chatCompletionClient{
		name:           name,
		client:         openai.NewClientWithConfig(clientConfig),
		config:         config,
		promptTemplate: NewPromptTemplate(),
	}
}

// explain sends one chat completion and returns the first choice, or "" when
// the backend returned no choices.
func (c *chatCompletionClient) explain(ctx context.Context, change git.ChangeContext) (string, error) {
	userPrompt, err := c.promptTemplate.RenderUserPrompt(change)
	if err != nil {
		return "", apperrors.NewRequestFailedError(c.name, err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.promptTemplate.GetSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
	}

	apperrors.LogAPIRequest(c.name, c.config.Endpoint, c.config.Model, len(userPrompt))
	startTime := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", apperrors.NewRequestFailedError(c.name, err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	apperrors.LogAPIResponse(c.name, 200, len(text), time.Since(startTime))

	return text, nil
}

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	*chatCompletionClient
}

// NewOpenAIProvider creates a new OpenAI provider bound to httpClient.
func NewOpenAIProvider(config ProviderConfig, httpClient HTTPDoer) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, apperrors.NewMissingAPIKeyError(string(KindOpenAI))
	}
	config.Kind = KindOpenAI
	config.Model = resolveModel(config.Model, DefaultOpenAIModel)
	if config.Endpoint == "" {
		config.Endpoint = DefaultOpenAIEndpoint
	}

	return &OpenAIProvider{newChatCompletionClient(string(KindOpenAI), config, httpClient)}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return string(KindOpenAI)
}

// Model returns the resolved model name.
func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

// Explain summarizes change using the OpenAI chat completions API.
func (p *OpenAIProvider) Explain(ctx context.Context, change git.ChangeContext) (string, error) {
	return p.explain(ctx, change)
}
