package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

const (
	// DefaultOllamaModel is the default model for Ollama.
	DefaultOllamaModel = "codellama"

	// DefaultOllamaEndpoint is the default API endpoint for Ollama.
	DefaultOllamaEndpoint = "http://localhost:11434"

	// OllamaAPIPath is the API path for chat completions.
	OllamaAPIPath = "/api/chat"
)

// OllamaProvider implements the Provider interface for a local Ollama server.
type OllamaProvider struct {
	httpClient     HTTPDoer
	config         ProviderConfig
	promptTemplate *PromptTemplate
}

// OllamaChatRequest represents a request to the Ollama chat API.
type OllamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// OllamaMessage represents a message in the Ollama chat API.
type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaChatResponse represents a response from the Ollama chat API.
type OllamaChatResponse struct {
	Model   string        `json:"model"`
	Message OllamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider bound to httpClient.
func NewOllamaProvider(config ProviderConfig, httpClient HTTPDoer) (*OllamaProvider, error) {
	if err := validateOllamaEndpoint(config.Endpoint); err != nil {
		return nil, err
	}

	config.Kind = KindOllama
	config.Model = resolveModel(config.Model, DefaultOllamaModel)
	if config.Endpoint == "" {
		config.Endpoint = DefaultOllamaEndpoint
	}
	config.Endpoint = strings.TrimSuffix(config.Endpoint, "/")

	return &OllamaProvider{
		httpClient:     httpClient,
		config:         config,
		promptTemplate: NewPromptTemplate(),
	}, nil
}

// validateOllamaEndpoint checks that a configured endpoint is an HTTP URL.
func validateOllamaEndpoint(endpoint string) error {
	if endpoint == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return nil
	}
	return apperrors.NewInvalidConfigError("ollama endpoint must start with http:// or https://").
		WithContext("endpoint", endpoint)
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return string(KindOllama)
}

// Model returns the resolved model name.
func (p *OllamaProvider) Model() string {
	return p.config.Model
}

// Explain summarizes change using the Ollama chat API without streaming.
func (p *OllamaProvider) Explain(ctx context.Context, change git.ChangeContext) (string, error) {
	userPrompt, err := p.promptTemplate.RenderUserPrompt(change)
	if err != nil {
		return "", apperrors.NewRequestFailedError(p.Name(), err)
	}

	chatReq := OllamaChatRequest{
		Model: p.config.Model,
		Messages: []OllamaMessage{
			{Role: "system", Content: p.promptTemplate.GetSystemPrompt()},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	}

	url := p.config.Endpoint + OllamaAPIPath
	apperrors.LogAPIRequest(p.Name(), url, p.config.Model, len(userPrompt))
	startTime := time.Now()

	httpResp, err := postJSON(ctx, p.httpClient, url, nil, chatReq)
	if err != nil {
		return "", p.wrapError(err)
	}

	var resp OllamaChatResponse
	if err := decodeJSON(httpResp, &resp); err != nil {
		return "", apperrors.NewRequestFailedError(p.Name(), err)
	}
	if resp.Error != "" {
		return "", apperrors.NewRequestFailedError(p.Name(), fmt.Errorf("ollama error: %s", resp.Error))
	}

	apperrors.LogAPIResponse(p.Name(), httpResp.StatusCode, len(resp.Message.Content), time.Since(startTime))

	return resp.Message.Content, nil
}

// wrapError adds Ollama-specific hints to a failed request.
func (p *OllamaProvider) wrapError(err error) error {
	appErr := apperrors.NewRequestFailedError(p.Name(), err)

	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == 404:
		appErr.WithSuggestion(fmt.Sprintf("Please ensure the model is pulled using 'ollama pull %s'", p.config.Model))
	case strings.Contains(err.Error(), "connection refused"):
		appErr.WithSuggestion("Please ensure Ollama is running using 'ollama serve'")
	}

	return appErr
}
