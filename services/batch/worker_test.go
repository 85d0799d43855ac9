package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-ai/promptforge/shared/apiclient"
	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/profile"
)

type recorder struct {
	mu   sync.Mutex
	keys []string
	done []events.BatchJobDonePayload
}

func (r *recorder) PublishEvent(_ context.Context, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	if p, ok := payload.(events.BatchJobDonePayload); ok {
		r.done = append(r.done, p)
	}
	return nil
}

type stubAPI struct {
	onGenerate func()
}

func (s stubAPI) FetchProfile(_ context.Context, id string) (*profile.Profile, error) {
	return profile.Decode([]byte(`{"template":"run ` + id + `"}`))
}

func (s stubAPI) Generate(ctx context.Context, _ string, req apiclient.GenerateRequest) (string, error) {
	if s.onGenerate != nil {
		s.onGenerate()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return req.Prompt, nil
}

func TestWorkerRunsInModelOrder(t *testing.T) {
	rec := &recorder{}
	w := newWorker(stubAPI{}, rec)

	sum := w.run(context.Background(), &events.BatchRequestedPayload{
		BatchID: "b1",
		Jobs: []events.BatchJob{
			{ModelKey: "ollama/a", ProfileKey: "1.json"},
			{ModelKey: "localai/b", ProfileKey: "2.json"},
		},
		ModelOrder: []string{"localai/b"},
	})

	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, []string{
		events.BatchJobStarted, events.BatchJobDone,
		events.BatchJobStarted, events.BatchJobDone,
		events.BatchDone,
	}, rec.keys)
	require.Len(t, rec.done, 2)
	assert.Equal(t, "localai/b/2.json", rec.done[0].ProfileID)
	assert.Equal(t, "run ollama/a/1.json", rec.done[1].Text)
	assert.Empty(t, w.running)
}

func TestWorkerCancelBeforeStart(t *testing.T) {
	rec := &recorder{}
	w := newWorker(stubAPI{}, rec)

	w.cancel("b2")
	sum := w.run(context.Background(), &events.BatchRequestedPayload{
		BatchID: "b2",
		Jobs:    []events.BatchJob{{ModelKey: "ollama/a", ProfileKey: "1.json"}},
	})

	assert.True(t, sum.Cancelled)
	assert.Zero(t, sum.Completed)
	assert.Equal(t, []string{events.BatchDone}, rec.keys)
	assert.Empty(t, w.early)
}

func TestWorkerCancelMidBatch(t *testing.T) {
	rec := &recorder{}
	var w *worker
	w = newWorker(stubAPI{onGenerate: func() { w.cancel("b3") }}, rec)

	sum := w.run(context.Background(), &events.BatchRequestedPayload{
		BatchID: "b3",
		Jobs: []events.BatchJob{
			{ModelKey: "ollama/a", ProfileKey: "1.json"},
			{ModelKey: "ollama/a", ProfileKey: "2.json"},
		},
	})

	assert.True(t, sum.Cancelled)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, rec.done, 1)
	assert.Equal(t, "cancelled", rec.done[0].Message)
}

func TestWorkerForgetsStaleEarlyCancels(t *testing.T) {
	w := newWorker(stubAPI{}, &recorder{})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	w.cancel("ghost")
	require.Contains(t, w.early, "ghost")

	clock = clock.Add(earlyCancelTTL + time.Minute)
	w.cancel("next")

	assert.NotContains(t, w.early, "ghost")
	assert.Contains(t, w.early, "next")

	// a stale cancel no longer stops a batch that finally arrives
	w.early["late"] = clock.Add(-2 * earlyCancelTTL)
	sum := w.run(context.Background(), &events.BatchRequestedPayload{
		BatchID: "late",
		Jobs:    []events.BatchJob{{ModelKey: "ollama/a", ProfileKey: "1.json"}},
	})
	assert.False(t, sum.Cancelled)
	assert.Equal(t, 1, sum.Completed)
}
