// Package security holds the secret-handling helpers and the data-egress
// notice shown before diffs leave the machine.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// MaskAPIKey masks an API key, showing only the last 4 characters.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

var secretPatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	// Anthropic keys first so the generic sk- rule does not leave the suffix.
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`), "sk-****"},
	{regexp.MustCompile(`gsk_[a-zA-Z0-9]{20,}`), "gsk_****"},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`), "Bearer ****"},
	{regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|apikey|api_secret|secret[_-]?key)\s*[:=]\s*["']?[a-zA-Z0-9._-]+["']?`), "$1=****"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?[^\s"']+["']?`), "$1=****"},
}

// SanitizeForLogging masks anything in s that looks like a credential.
// Backend error bodies pass through here before they reach an error message.
func SanitizeForLogging(s string) string {
	result := s
	for _, p := range secretPatterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}

const firstUseTemplate = `
⚠️  IMPORTANT NOTICE ⚠️

lumen sends the diff of the change you ask about to the %s service
to produce an explanation.

Your code changes will be transmitted over the internet to a third-party
server. Please ensure you:

1. Do not ask about changes containing secrets (API keys, passwords, tokens)
2. Review staged changes before running lumen explain --staged
3. Consider the local provider (ollama) for sensitive repositories

`

// FirstUseWarning returns the notice shown before the first remote request.
func FirstUseWarning(provider string) string {
	return fmt.Sprintf(firstUseTemplate, provider)
}

// FirstUseAcknowledgment is shown once the notice has been accepted.
const FirstUseAcknowledgment = "Thanks. This notice will not be shown again."
