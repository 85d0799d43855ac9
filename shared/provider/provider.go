// Package provider turns a (provider, model, prompt) request into generated
// text, either through a configured HTTP backend or a deterministic stub.
package provider

import "context"

// Provider is an abstraction over text-generation backends.
type Provider interface {
	// Generate returns the generated text for req.
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single generation call.
type Request struct {
	Provider string
	Model    string
	Prompt   string
	Options  Options

	// Optional per-call overrides of the registry entry.
	RequestFormat Format
	Endpoint      string
}

// Options is the free-form option map sent alongside a request.
type Options map[string]any

// MergeOptions shallow-merges call over defaults. Keys present in call win;
// nested values are replaced wholesale. Neither input is modified.
func MergeOptions(defaults, call Options) Options {
	out := make(Options, len(defaults)+len(call))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range call {
		out[k] = v
	}
	return out
}
