package internal

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/events"
)

func (gw *Gateway) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	if gw.broker == nil {
		jsonErr(w, "batch queue not configured", 503)
		return
	}
	var req struct {
		Jobs       []events.BatchJob `json:"jobs"`
		ModelOrder []string          `json:"modelOrder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	jobs := req.Jobs[:0]
	for _, j := range req.Jobs {
		if strings.TrimSpace(j.ModelKey) != "" && strings.TrimSpace(j.ProfileKey) != "" {
			jobs = append(jobs, j)
		}
	}
	if len(jobs) == 0 {
		jsonErr(w, "jobs required", 400)
		return
	}

	p := events.BatchRequestedPayload{
		BatchID:    uuid.New().String(),
		Jobs:       jobs,
		ModelOrder: req.ModelOrder,
	}
	if err := gw.broker.PublishEvent(r.Context(), events.BatchRequested, p); err != nil {
		log.Error().Err(err).Msg("publish batch")
		jsonErr(w, "queue publish failed", 500)
		return
	}
	log.Info().Str("batch", p.BatchID).Int("jobs", len(jobs)).Msg("batch queued")
	jsonOK(w, map[string]any{"batch_id": p.BatchID, "jobs": len(jobs), "status": "queued"}, 202)
}

func (gw *Gateway) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	if gw.broker == nil {
		jsonErr(w, "batch queue not configured", 503)
		return
	}
	id := r.PathValue("id")
	if err := gw.broker.PublishEvent(r.Context(), events.BatchCancel, events.BatchCancelPayload{BatchID: id}); err != nil {
		jsonErr(w, "queue publish failed", 500)
		return
	}
	jsonOK(w, map[string]any{"batch_id": id, "status": "cancelling"}, 202)
}
