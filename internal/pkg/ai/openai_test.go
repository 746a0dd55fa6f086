package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test"}, http.DefaultClient)
	require.NoError(t, err)

	assert.Equal(t, "openai", provider.Name())
	assert.Equal(t, DefaultOpenAIModel, provider.Model())
	assert.Equal(t, DefaultOpenAIEndpoint, provider.config.Endpoint)
}

func TestNewOpenAIProvider_MissingAPIKey(t *testing.T) {
	provider, err := NewOpenAIProvider(ProviderConfig{}, http.DefaultClient)

	assert.Nil(t, provider)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingAPIKey))
}

func TestOpenAIProvider_Explain(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK,
		`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Adds an early return."},"finish_reason":"stop"}]}`)

	provider, err := NewOpenAIProvider(ProviderConfig{
		APIKey:   "sk-test",
		Model:    "gpt-test",
		Endpoint: server.URL,
	}, server.Client())
	require.NoError(t, err)

	commit := fixtureCommit()
	text, err := provider.Explain(context.Background(), commit)
	require.NoError(t, err)
	assert.Equal(t, "Adds an early return.", text)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer sk-test", captured.Header.Get("Authorization"))
	assert.Equal(t, "gpt-test", captured.Body["model"])

	messages := messagesOf(t, captured.Body, "messages")
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0]["role"])
	assert.Equal(t, DefaultSystemPrompt, messages[0]["content"])
	assert.Equal(t, "user", messages[1]["role"])

	userPrompt, _ := BuildUserPrompt(commit)
	assert.Equal(t, userPrompt, messages[1]["content"])
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, `{"choices":[]}`)

	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Endpoint: server.URL}, server.Client())
	require.NoError(t, err)

	text, err := provider.Explain(context.Background(), &git.StagedChanges{Diff: "+x\n"})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestOpenAIProvider_RequestFailed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"undecodable body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newCaptureServer(t, tt.status, tt.body)

			provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Endpoint: server.URL}, server.Client())
			require.NoError(t, err)

			_, err = provider.Explain(context.Background(), fixtureCommit())
			assert.True(t, apperrors.HasCode(err, apperrors.ErrRequestFailed), "got %v", err)
		})
	}
}

func TestOpenAIProvider_TransportFailure(t *testing.T) {
	doer := &countingDoer{}
	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Endpoint: "http://127.0.0.1:0"}, doer)
	require.NoError(t, err)

	_, err = provider.Explain(context.Background(), fixtureCommit())

	assert.True(t, apperrors.HasCode(err, apperrors.ErrRequestFailed))
	assert.Equal(t, int32(1), doer.calls.Load(), "no retries expected")
}

func TestGroqProvider_Explain(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK,
		`{"choices":[{"index":0,"message":{"role":"assistant","content":"Groq summary"}}]}`)

	provider, err := NewGroqProvider(ProviderConfig{APIKey: "gsk_test", Endpoint: server.URL}, server.Client())
	require.NoError(t, err)

	assert.Equal(t, "groq", provider.Name())
	assert.Equal(t, DefaultGroqModel, provider.Model())

	text, err := provider.Explain(context.Background(), fixtureCommit())
	require.NoError(t, err)
	assert.Equal(t, "Groq summary", text)
	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer gsk_test", captured.Header.Get("Authorization"))
	assert.Equal(t, DefaultGroqModel, captured.Body["model"])
}

func TestGroqProvider_Defaults(t *testing.T) {
	provider, err := NewGroqProvider(ProviderConfig{APIKey: "gsk_test"}, http.DefaultClient)
	require.NoError(t, err)
	assert.Equal(t, DefaultGroqEndpoint, provider.config.Endpoint)

	_, err = NewGroqProvider(ProviderConfig{}, http.DefaultClient)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingAPIKey))
}
