package ai

import (
	"bytes"
	"text/template"

	"github.com/lumen-cli/lumen/internal/pkg/git"
)

// DefaultSystemPrompt accompanies every request.
const DefaultSystemPrompt = "You are a helpful assistant that analyzes git commits. " +
	"Provide a concise summary of the changes based on the commit message and diff content. " +
	"Focus on the impact and purpose of the changes. " +
	"Don't sound like an AI. Don't use filler words."

// CommitPromptTemplate frames a single commit: message first, then diff.
const CommitPromptTemplate = `Please analyze this git commit and provide a summary.

Commit Message:
{{.Message}}

Diff Content:
{{.Diff}}`

// StagedPromptTemplate frames the staged index.
const StagedPromptTemplate = `Please analyze the following staged changes and provide a short, concise title and a detailed summary.

Diff Content:
{{.Diff}}`

// EmptyChangePrompt is sent when there is nothing to interpolate.
const EmptyChangePrompt = "No commit message or diff content available."

// PromptTemplate renders the user prompt for a ChangeContext.
type PromptTemplate struct {
	SystemPrompt string
	commitTmpl   *template.Template
	stagedTmpl   *template.Template
}

// NewPromptTemplate creates a PromptTemplate with the default prompts.
func NewPromptTemplate() *PromptTemplate {
	return &PromptTemplate{
		SystemPrompt: DefaultSystemPrompt,
		commitTmpl:   template.Must(template.New("commit").Parse(CommitPromptTemplate)),
		stagedTmpl:   template.Must(template.New("staged").Parse(StagedPromptTemplate)),
	}
}

// GetSystemPrompt returns the system prompt.
func (pt *PromptTemplate) GetSystemPrompt() string {
	return pt.SystemPrompt
}

// RenderUserPrompt renders the user prompt for change. Message and diff are
// interpolated verbatim.
func (pt *PromptTemplate) RenderUserPrompt(change git.ChangeContext) (string, error) {
	var tmpl *template.Template
	switch c := change.(type) {
	case *git.Commit:
		if c == nil {
			return EmptyChangePrompt, nil
		}
		tmpl = pt.commitTmpl
	case *git.StagedChanges:
		if c == nil || c.Diff == "" {
			return EmptyChangePrompt, nil
		}
		tmpl = pt.stagedTmpl
	default:
		return EmptyChangePrompt, nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, change); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var defaultPromptTemplate = NewPromptTemplate()

// BuildUserPrompt renders the user prompt for change with the default templates.
func BuildUserPrompt(change git.ChangeContext) (string, error) {
	return defaultPromptTemplate.RenderUserPrompt(change)
}
