package internal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/profile"
)

func (gw *Gateway) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := gw.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list profiles")
		jsonErr(w, "Failed to list profiles", 500)
		return
	}
	jsonOK(w, names, 200)
}

func (gw *Gateway) handleReadProfile(w http.ResponseWriter, r *http.Request) {
	raw, err := gw.store.Read(r.Context(), r.PathValue("name"))
	switch {
	case errors.Is(err, profile.ErrInvalidPath):
		jsonErr(w, "Invalid profile path", 400)
		return
	case errors.Is(err, profile.ErrNotFound):
		jsonErr(w, "Profile not found", 404)
		return
	case err != nil:
		log.Error().Err(err).Msg("read profile")
		jsonErr(w, "Failed to read profile", 500)
		return
	}
	if !json.Valid(raw) {
		jsonErr(w, "Stored profile is not valid JSON", 500)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(raw)
}

func (gw *Gateway) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string          `json:"name"`
		Profile json.RawMessage `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	err := gw.store.Save(r.Context(), req.Name, req.Profile)
	switch {
	case errors.Is(err, profile.ErrInvalidPath):
		jsonErr(w, "Invalid profile path", 400)
		return
	case errors.Is(err, profile.ErrInvalidProfile):
		jsonErr(w, "Profile must be a JSON object", 400)
		return
	case err != nil:
		log.Error().Err(err).Str("name", req.Name).Msg("save profile")
		jsonErr(w, "Failed to save profile", 500)
		return
	}

	p, _ := profile.ParsePath(req.Name)
	log.Info().Str("path", p.String()).Msg("profile saved")
	gw.bus.Emit(events.ProfileSaved, events.ProfileSavedPayload{Path: p.String()})
	jsonOK(w, map[string]any{"ok": true, "path": p.String()}, 200)
}

func (gw *Gateway) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := gw.models.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list models")
		jsonErr(w, "Failed to fetch models", 500)
		return
	}
	jsonOK(w, models, 200)
}
