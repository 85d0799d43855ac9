package provider

import "strings"

const anthropicVersion = "2023-06-01"

// RegisterHosted adds the hosted providers whose API keys are present:
// openrouter (OPENROUTER_API_KEY) and anthropic (ANTHROPIC_API_KEY).
// It returns the keys it registered.
func (r *Registry) RegisterHosted(lookup func(string) (string, bool)) []string {
	var added []string

	if key, ok := secret(lookup, "OPENROUTER_API_KEY"); ok {
		_ = r.Register("openrouter", HTTPConfig{
			BaseURL:        "https://openrouter.ai/api",
			Path:           "/v1/chat/completions",
			Format:         FormatOpenAIChat,
			ResponsePath:   "choices.0.message.content",
			DefaultOptions: Options{"temperature": 0.3},
			Headers:        map[string]string{"Authorization": "Bearer " + key},
		})
		added = append(added, "openrouter")
	}

	if key, ok := secret(lookup, "ANTHROPIC_API_KEY"); ok {
		_ = r.Register("anthropic", HTTPConfig{
			BaseURL:        "https://api.anthropic.com",
			Path:           "/v1/messages",
			Format:         FormatAnthropic,
			ResponsePath:   "content.0.text",
			DefaultOptions: Options{"max_tokens": defaultMaxTokens},
			Headers: map[string]string{
				"x-api-key":         key,
				"anthropic-version": anthropicVersion,
			},
		})
		added = append(added, "anthropic")
	}
	return added
}

func secret(lookup func(string) (string, bool), name string) (string, bool) {
	v, ok := lookup(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
