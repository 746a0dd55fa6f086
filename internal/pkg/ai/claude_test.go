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

func TestNewClaudeProvider(t *testing.T) {
	provider, err := NewClaudeProvider(ProviderConfig{APIKey: "sk-ant-test"}, http.DefaultClient)
	require.NoError(t, err)
	assert.Equal(t, "claude", provider.Name())
	assert.Equal(t, DefaultClaudeModel, provider.Model())
	assert.Equal(t, DefaultClaudeEndpoint, provider.config.Endpoint)

	provider, err = NewClaudeProvider(ProviderConfig{}, http.DefaultClient)
	assert.Nil(t, provider)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingAPIKey))
}

func TestClaudeProvider_Explain(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK,
		`{"id":"msg_1","type":"message","content":[{"type":"text","text":"Claude summary"},{"type":"text","text":"ignored"}]}`)

	provider, err := NewClaudeProvider(ProviderConfig{
		APIKey:   "sk-ant-test",
		Model:    "claude-test",
		Endpoint: server.URL + "/v1",
	}, server.Client())
	require.NoError(t, err)

	staged := &git.StagedChanges{Diff: "+hello\n"}
	text, err := provider.Explain(context.Background(), staged)
	require.NoError(t, err)
	assert.Equal(t, "Claude summary", text)

	assert.Equal(t, "/v1/messages", captured.Path)
	assert.Equal(t, "sk-ant-test", captured.Header.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", captured.Header.Get("anthropic-version"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, "claude-test", captured.Body["model"])
	assert.Equal(t, float64(ClaudeMaxTokens), captured.Body["max_tokens"])
	assert.Equal(t, DefaultSystemPrompt, captured.Body["system"])

	messages := messagesOf(t, captured.Body, "messages")
	require.Len(t, messages, 1, "the system prompt must not travel as a message")
	assert.Equal(t, "user", messages[0]["role"])

	parts, ok := messages[0]["content"].([]interface{})
	require.True(t, ok, "content: %v", messages[0]["content"])
	require.Len(t, parts, 1)
	part := parts[0].(map[string]interface{})
	userPrompt, _ := BuildUserPrompt(staged)
	assert.Equal(t, "text", part["type"])
	assert.Equal(t, userPrompt, part["text"])
}

func TestClaudeProvider_EmptyContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"content":[]}`},
		{"missing list", `{"id":"msg_1","type":"message"}`},
		{"empty text block", `{"content":[{"type":"text","text":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newCaptureServer(t, http.StatusOK, tt.body)

			provider, err := NewClaudeProvider(ProviderConfig{APIKey: "sk-ant-test", Endpoint: server.URL}, server.Client())
			require.NoError(t, err)

			text, err := provider.Explain(context.Background(), fixtureCommit())
			require.NoError(t, err)
			assert.Equal(t, "", text)
		})
	}
}

func TestClaudeProvider_RequestFailed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error"}}`},
		{"overloaded", 529, `{"type":"error"}`},
		{"undecodable body", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newCaptureServer(t, tt.status, tt.body)

			provider, err := NewClaudeProvider(ProviderConfig{APIKey: "sk-ant-test", Endpoint: server.URL}, server.Client())
			require.NoError(t, err)

			_, err = provider.Explain(context.Background(), fixtureCommit())
			assert.True(t, apperrors.HasCode(err, apperrors.ErrRequestFailed), "got %v", err)
		})
	}
}

func TestClaudeProvider_ErrorCause(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)

	provider, err := NewClaudeProvider(ProviderConfig{APIKey: "sk-ant-test", Endpoint: server.URL}, server.Client())
	require.NoError(t, err)

	_, err = provider.Explain(context.Background(), fixtureCommit())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrRequestFailed))
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestClaudeProvider_NilClient(t *testing.T) {
	provider, err := NewClaudeProvider(ProviderConfig{APIKey: "sk-ant-test"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, provider.llm)
}
