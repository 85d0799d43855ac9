package apiclient

import (
	"strings"

	"github.com/forge-ai/promptforge/shared/provider"
)

// Strategy pulls generated text out of a decoded response body.
type Strategy func(body any) (string, bool)

// Field reads a string at a dotted path.
func Field(path string) Strategy {
	return func(body any) (string, bool) {
		return provider.ExtractString(body, path)
	}
}

// DefaultStrategies covers the gateway response, raw Ollama, generic text
// APIs and OpenAI-style chat completions, in that order.
var DefaultStrategies = []Strategy{
	Field("output"),
	Field("response"),
	Field("text"),
	Field("content"),
	Field("choices.0.message.content"),
}

// ExtractText returns the trimmed result of the first strategy that matches,
// or "" when none does.
func ExtractText(body any, strategies []Strategy) string {
	for _, s := range strategies {
		if text, ok := s(body); ok {
			return strings.TrimSpace(text)
		}
	}
	return ""
}
