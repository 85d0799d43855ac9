package provider

import (
	"context"
	"fmt"
	"strings"
)

const stubPromptPreview = 120

// Stub is a placeholder provider that echoes a tagged preview of the prompt.
type Stub struct {
	Name string
}

// DefaultStubs returns the openai, gemini and anthropic placeholders.
func DefaultStubs() []Stub {
	return []Stub{{Name: "openai"}, {Name: "gemini"}, {Name: "anthropic"}}
}

func (s Stub) Generate(_ context.Context, req Request) (string, error) {
	return fmt.Sprintf("[DUMMY %s] model=%s\n%s",
		strings.ToUpper(s.Name), req.Model, Truncate(req.Prompt, stubPromptPreview)), nil
}
