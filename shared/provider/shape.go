package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format names an upstream request body shape.
type Format string

const (
	FormatOllamaGenerate Format = "ollama_generate"
	FormatOpenAIChat     Format = "openai_chat"
	FormatAnthropic      Format = "anthropic_messages"
)

// anthropic_messages requires max_tokens
const defaultMaxTokens = 4096

func (f Format) normalized() Format {
	return Format(strings.ToLower(strings.TrimSpace(string(f))))
}

// Known reports whether Shape can build bodies for f.
func (f Format) Known() bool {
	switch f.normalized() {
	case FormatOllamaGenerate, FormatOpenAIChat, FormatAnthropic:
		return true
	}
	return false
}

// Shape builds the upstream request body for format. Temperature is only
// forwarded when the options carry it as a number.
func Shape(format Format, model, prompt string, opts Options) (map[string]any, error) {
	temp, hasTemp := numberOption(opts, "temperature", false)

	switch format.normalized() {
	case FormatOllamaGenerate:
		body := map[string]any{
			"model":  model,
			"prompt": prompt,
			"stream": false,
		}
		if hasTemp {
			body["options"] = map[string]any{"temperature": temp}
		}
		return body, nil

	case FormatOpenAIChat:
		body := map[string]any{
			"model": model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}
		if hasTemp {
			body["temperature"] = temp
		}
		return body, nil

	case FormatAnthropic:
		maxTokens := float64(defaultMaxTokens)
		if n, ok := numberOption(opts, "max_tokens", false); ok && n > 0 {
			maxTokens = n
		}
		body := map[string]any{
			"model":      model,
			"max_tokens": int(maxTokens),
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}
		if sys, ok := opts["system"].(string); ok && strings.TrimSpace(sys) != "" {
			body["system"] = sys
		}
		if hasTemp {
			body["temperature"] = temp
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// numberOption reads a finite numeric option. Numeric strings are accepted
// only when allowStrings is set.
func numberOption(opts Options, key string, allowStrings bool) (float64, bool) {
	raw, ok := opts[key]
	if !ok || raw == nil {
		return 0, false
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		if !allowStrings {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
