package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

const (
	// DefaultPhindModel is the default model for Phind.
	DefaultPhindModel = "Phind-70B"

	// DefaultPhindEndpoint is the Phind agent URL.
	DefaultPhindEndpoint = "https://https.extension.phind.com/agent/"
)

// PhindProvider implements the Provider interface for Phind. Phind needs no
// credential and answers with an event stream.
type PhindProvider struct {
	httpClient     HTTPDoer
	config         ProviderConfig
	promptTemplate *PromptTemplate
}

// PhindRequest is the request envelope expected by the Phind agent.
type PhindRequest struct {
	AdditionalExtensionContext string         `json:"additional_extension_context"`
	AllowMagicButtons          bool           `json:"allow_magic_buttons"`
	IsVSCodeExtension          bool           `json:"is_vscode_extension"`
	MessageHistory             []PhindMessage `json:"message_history"`
	RequestedModel             string         `json:"requested_model"`
	UserInput                  string         `json:"user_input"`
}

// PhindMessage is one entry of the message history.
type PhindMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// NewPhindProvider creates a new Phind provider bound to httpClient.
func NewPhindProvider(config ProviderConfig, httpClient HTTPDoer) *PhindProvider {
	config.Kind = KindPhind
	config.Model = resolveModel(config.Model, DefaultPhindModel)
	if config.Endpoint == "" {
		config.Endpoint = DefaultPhindEndpoint
	}

	return &PhindProvider{
		httpClient:     httpClient,
		config:         config,
		promptTemplate: NewPromptTemplate(),
	}
}

// Name returns the provider name.
func (p *PhindProvider) Name() string {
	return string(KindPhind)
}

// Model returns the resolved model name.
func (p *PhindProvider) Model() string {
	return p.config.Model
}

// NewPhindRequest builds the request envelope for userInput. The envelope has
// no system role, so the system instruction is prepended to the user input.
func (p *PhindProvider) NewPhindRequest(userInput string) PhindRequest {
	content := fmt.Sprintf("%s\n\n%s", p.promptTemplate.GetSystemPrompt(), userInput)
	return PhindRequest{
		AdditionalExtensionContext: "",
		AllowMagicButtons:          true,
		IsVSCodeExtension:          true,
		MessageHistory: []PhindMessage{
			{Content: content, Role: "user"},
		},
		RequestedModel: p.config.Model,
		UserInput:      content,
	}
}

// Explain summarizes change using Phind, reading the streamed answer to the
// end before returning it.
func (p *PhindProvider) Explain(ctx context.Context, change git.ChangeContext) (string, error) {
	userPrompt, err := p.promptTemplate.RenderUserPrompt(change)
	if err != nil {
		return "", apperrors.NewRequestFailedError(p.Name(), err)
	}

	// An empty User-Agent makes net/http omit the header entirely, so no
	// Go-http-client agent is sent.
	header := http.Header{}
	header.Set("User-Agent", "")
	header.Set("Accept", "*/*")
	header.Set("Accept-Encoding", "identity")

	apperrors.LogAPIRequest(p.Name(), p.config.Endpoint, p.config.Model, len(userPrompt))
	startTime := time.Now()

	httpResp, err := postJSON(ctx, p.httpClient, p.config.Endpoint, header, p.NewPhindRequest(userPrompt))
	if err != nil {
		return "", apperrors.NewRequestFailedError(p.Name(), err)
	}
	defer httpResp.Body.Close()

	text, err := ReduceStream(httpResp.Body)
	if err != nil {
		return "", apperrors.NewRequestFailedError(p.Name(), fmt.Errorf("failed to read stream: %w", err))
	}
	apperrors.LogAPIResponse(p.Name(), httpResp.StatusCode, len(text), time.Since(startTime))

	return text, nil
}
