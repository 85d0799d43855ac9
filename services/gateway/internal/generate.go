package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/provider"
)

const maxErrorMessage = 500

func (gw *Gateway) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string          `json:"provider"`
		Model    string          `json:"model"`
		Prompt   string          `json:"prompt"`
		Options  json.RawMessage `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	key := strings.ToLower(strings.TrimSpace(req.Provider))
	model := strings.TrimSpace(req.Model)
	if key == "" || model == "" || strings.TrimSpace(req.Prompt) == "" {
		jsonErr(w, "provider, model, and prompt are required", 400)
		return
	}
	if !gw.providers.Supports(key) {
		jsonErr(w, "Unsupported provider: "+key, 400)
		return
	}

	// options that are not a JSON object are ignored
	var opts provider.Options
	if len(req.Options) > 0 {
		_ = json.Unmarshal(req.Options, &opts)
	}

	gw.bus.Emit(events.GenerateStarted, events.GeneratePayload{Provider: key, Model: model})
	start := time.Now()

	output, err := gw.providers.Generate(r.Context(), provider.Request{
		Provider: key,
		Model:    model,
		Prompt:   req.Prompt,
		Options:  opts,
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		msg := provider.Truncate(err.Error(), maxErrorMessage)
		log.Error().Err(err).Str("provider", key).Str("model", model).Msg("generate failed")
		gw.bus.Emit(events.GenerateFailed, events.GeneratePayload{Provider: key, Model: model, Error: msg, Millis: elapsed})
		if errors.Is(err, provider.ErrUnknownProvider) {
			jsonErr(w, msg, 400)
			return
		}
		jsonErr(w, msg, 502)
		return
	}

	log.Info().Str("provider", key).Str("model", model).Int64("ms", elapsed).Msg("generated")
	gw.bus.Emit(events.GenerateComplete, events.GeneratePayload{Provider: key, Model: model, Millis: elapsed})
	jsonOK(w, map[string]string{
		"provider": key,
		"model":    model,
		"output":   output,
	}, 200)
}
