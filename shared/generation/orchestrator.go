// Package generation turns a compiled prompt into output for a profile.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/apiclient"
	"github.com/forge-ai/promptforge/shared/profile"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrMissingPrompt         = fmt.Errorf("%w: prompt is empty", ErrValidation)
	ErrMissingProvider       = fmt.Errorf("%w: provider is not set", ErrValidation)
	ErrMissingModel          = fmt.Errorf("%w: model is not set", ErrValidation)
	ErrProviderNotConfigured = errors.New("provider is not configured in profile")
	ErrMissingEndpoint       = errors.New("provider has no endpoint")
)

// Generator is the API boundary the orchestrator delegates to.
type Generator interface {
	Generate(ctx context.Context, endpoint string, req apiclient.GenerateRequest) (string, error)
}

type Orchestrator struct {
	api Generator
}

func NewOrchestrator(api Generator) *Orchestrator {
	return &Orchestrator{api: api}
}

// Run returns compiled as-is outside llm mode. In llm mode it validates the
// profile's defaults and provider entry before making a single API call.
func (o *Orchestrator) Run(ctx context.Context, p *profile.Profile, compiled string) (string, error) {
	if p.Mode != profile.ModeLLM {
		return compiled, nil
	}

	providerKey := strings.ToLower(strings.TrimSpace(p.Defaults.Provider))
	model := strings.TrimSpace(p.Defaults.Model)
	switch {
	case strings.TrimSpace(compiled) == "":
		return "", ErrMissingPrompt
	case providerKey == "":
		return "", ErrMissingProvider
	case model == "":
		return "", ErrMissingModel
	}

	cfg, ok := p.ProviderFor(providerKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, providerKey)
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingEndpoint, providerKey)
	}
	format := cfg.RequestFormat
	if format == "" {
		format = apiclient.RequestFormatStandard
	}

	log.Debug().Str("provider", providerKey).Str("model", model).Str("endpoint", cfg.Endpoint).Msg("generating")

	return o.api.Generate(ctx, cfg.Endpoint, apiclient.GenerateRequest{
		Provider:      providerKey,
		Model:         model,
		Prompt:        compiled,
		RequestFormat: format,
		Options:       cfg.Options,
	})
}
