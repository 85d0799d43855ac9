package internal

import (
	"encoding/json"
	"net/http"
)

// Handler returns the full routed API.
func (gw *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", gw.handleHealth)
	mux.HandleFunc("GET /api/{$}", gw.handleHealth)
	mux.HandleFunc("GET /api/providers", gw.handleProviders)
	mux.HandleFunc("POST /api/generate", gw.handleGenerate)

	mux.HandleFunc("GET /api/profiles/list", gw.handleListProfiles)
	mux.HandleFunc("GET /api/profiles/models", gw.handleModels)
	mux.HandleFunc("POST /api/profiles/save", gw.handleSaveProfile)
	mux.HandleFunc("GET /api/profiles/{name...}", gw.handleReadProfile)

	mux.HandleFunc("POST /api/batch", gw.handleSubmitBatch)
	mux.HandleFunc("POST /api/batch/{id}/cancel", gw.handleCancelBatch)

	mux.HandleFunc("/ws", gw.hub.ServeWS)

	return cors(gw.limitBody(mux))
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"}, 200)
}

func (gw *Gateway) handleProviders(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{"providers": gw.providers.Keys()}, 200)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	jsonOK(w, map[string]string{"error": msg}, code)
}

func (gw *Gateway) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && gw.cfg.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, gw.cfg.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}
