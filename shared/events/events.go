// Package events defines the message contract shared by the gateway, the
// batch worker and the notifier, on RabbitMQ and on the in-process Bus.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ── Routing keys (RabbitMQ topic exchange: promptforge.events) ──────────────
const (
	GenerateStarted  = "generate.started"
	GenerateComplete = "generate.complete"
	GenerateFailed   = "generate.failed"
	GenerationState  = "generation.state"
	ProfileSaved     = "profile.saved"
	APIStatus        = "api.status"
	BatchRequested   = "batch.requested"
	BatchCancel      = "batch.cancel"
	BatchJobStarted  = "batch.job.started"
	BatchJobDone     = "batch.job.done"
	BatchDone        = "batch.done"
	LogEvent         = "log.event"
)

// ── Envelope wraps every message ─────────────────────────────────────────────

type Envelope struct {
	ID         string          `json:"id"`
	RoutingKey string          `json:"routing_key"`
	Timestamp  time.Time       `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(routingKey string, payload any) (*Envelope, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:         uuid.New().String(),
		RoutingKey: routingKey,
		Timestamp:  time.Now(),
		Payload:    p,
	}, nil
}

func Wrap(routingKey string, payload any) ([]byte, error) {
	env, err := NewEnvelope(routingKey, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func Unwrap[T any](raw []byte) (*T, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return Decode[T](&env)
}

// Decode reads the payload of an already parsed envelope.
func Decode[T any](env *Envelope) (*T, error) {
	var t T
	return &t, json.Unmarshal(env.Payload, &t)
}

func UnwrapEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	return &env, json.Unmarshal(raw, &env)
}

// ── Payload types ─────────────────────────────────────────────────────────────

type GeneratePayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Millis   int64  `json:"ms,omitempty"`
}

type GenerationStatePayload struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type ProfileSavedPayload struct {
	Path string `json:"path"`
}

type APIStatusPayload struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

type BatchJob struct {
	ModelKey   string `json:"modelKey"`
	ProfileKey string `json:"profileKey"`
}

type BatchRequestedPayload struct {
	BatchID    string     `json:"batch_id"`
	Jobs       []BatchJob `json:"jobs"`
	ModelOrder []string   `json:"modelOrder,omitempty"`
}

type BatchCancelPayload struct {
	BatchID string `json:"batch_id"`
}

type BatchJobStartedPayload struct {
	BatchID   string `json:"batch_id"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	ProfileID string `json:"profileId"`
}

type BatchJobDonePayload struct {
	BatchID   string `json:"batch_id"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	ProfileID string `json:"profileId"`
	OK        bool   `json:"ok"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
}

type BatchDonePayload struct {
	BatchID   string `json:"batch_id"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Cancelled bool   `json:"cancelled"`
}

type LogEventPayload struct {
	Level   string         `json:"level"`
	Step    string         `json:"step"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
