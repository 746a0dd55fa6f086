// Package ai provides the provider contract and backend adapters for lumen.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
	"github.com/lumen-cli/lumen/internal/pkg/git"
)

// HTTPDoer is the HTTP collaborator shared by every adapter. *http.Client
// satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Kind identifies a backend.
type Kind string

// Supported backend kinds.
const (
	KindOpenAI Kind = "openai"
	KindGroq   Kind = "groq"
	KindClaude Kind = "claude"
	KindPhind  Kind = "phind"
	KindOllama Kind = "ollama"
)

// Kinds lists every supported backend in display order.
var Kinds = []Kind{KindPhind, KindOpenAI, KindGroq, KindClaude, KindOllama}

// ParseKind converts a configuration value into a Kind.
func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Kinds {
		if k == kind {
			return k, nil
		}
	}
	return "", apperrors.NewInvalidConfigError(fmt.Sprintf("unknown provider: %q", s)).
		WithContext("provider", s)
}

// RequiresAPIKey reports whether the backend refuses requests without a key.
func (k Kind) RequiresAPIKey() bool {
	switch k {
	case KindOpenAI, KindGroq, KindClaude:
		return true
	default:
		return false
	}
}

// IsRemote reports whether requests to the backend leave the machine.
func (k Kind) IsRemote() bool {
	return k != KindOllama
}

// ProviderConfig is a selection request consumed once by NewProvider.
type ProviderConfig struct {
	Kind   Kind
	APIKey string
	// Model overrides the backend default when non-empty.
	Model string
	// Endpoint overrides the backend URL when non-empty.
	Endpoint string
}

// Provider explains a change using one backend. Implementations perform
// exactly one HTTP request per call and never retry.
type Provider interface {
	Explain(ctx context.Context, change git.ChangeContext) (string, error)
	Name() string
	Model() string
}

// resolveModel returns override when set, otherwise def.
func resolveModel(override, def string) string {
	if override != "" {
		return override
	}
	return def
}

// DefaultModel returns the model a backend uses when none is configured.
func (k Kind) DefaultModel() string {
	switch k {
	case KindOpenAI:
		return DefaultOpenAIModel
	case KindGroq:
		return DefaultGroqModel
	case KindClaude:
		return DefaultClaudeModel
	case KindPhind:
		return DefaultPhindModel
	case KindOllama:
		return DefaultOllamaModel
	default:
		return ""
	}
}
