package main

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/batch"
	"github.com/forge-ai/promptforge/shared/events"
)

// how long a cancel for a batch that has not started is remembered
const earlyCancelTTL = time.Hour

// publisher is the part of the broker the worker needs.
type publisher interface {
	PublishEvent(ctx context.Context, routingKey string, payload any) error
}

type worker struct {
	api batch.API
	pub publisher

	mu      sync.Mutex
	running map[string]context.CancelFunc
	// cancellations that arrived before their batch started, by arrival time
	early map[string]time.Time
	now   func() time.Time
}

func newWorker(api batch.API, pub publisher) *worker {
	return &worker{
		api:     api,
		pub:     pub,
		running: make(map[string]context.CancelFunc),
		early:   make(map[string]time.Time),
		now:     time.Now,
	}
}

func (w *worker) handleRequest(ctx context.Context, d amqp.Delivery) error {
	p, err := events.Unwrap[events.BatchRequestedPayload](d.Body)
	if err != nil {
		return err
	}
	w.run(ctx, p)
	return nil
}

func (w *worker) handleCancel(_ context.Context, d amqp.Delivery) error {
	p, err := events.Unwrap[events.BatchCancelPayload](d.Body)
	if err != nil {
		return err
	}
	w.cancel(p.BatchID)
	return nil
}

func (w *worker) cancel(batchID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if stop, ok := w.running[batchID]; ok {
		log.Info().Str("batch", batchID).Msg("cancelling batch")
		stop()
		return
	}
	w.pruneEarly()
	w.early[batchID] = w.now()
}

// pruneEarly drops remembered cancels older than earlyCancelTTL.
// Callers hold w.mu.
func (w *worker) pruneEarly() {
	now := w.now()
	for id, at := range w.early {
		if now.Sub(at) > earlyCancelTTL {
			delete(w.early, id)
		}
	}
}

// run executes one batch and publishes its progress. It blocks until the
// batch finishes or is cancelled.
func (w *worker) run(ctx context.Context, p *events.BatchRequestedPayload) batch.Summary {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	w.mu.Lock()
	w.pruneEarly()
	if _, ok := w.early[p.BatchID]; ok {
		delete(w.early, p.BatchID)
		stop()
	}
	w.running[p.BatchID] = stop
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.running, p.BatchID)
		w.mu.Unlock()
	}()

	jobs := make([]batch.Job, 0, len(p.Jobs))
	for _, j := range p.Jobs {
		jobs = append(jobs, batch.Job{ModelKey: j.ModelKey, ProfileKey: j.ProfileKey})
	}
	jobs = batch.OrderJobs(jobs, p.ModelOrder)

	log.Info().Str("batch", p.BatchID).Int("jobs", len(jobs)).Msg("batch started")

	runner := batch.NewRunner(w.api, batch.Hooks{
		OnStart: func(i, total int, job batch.Job) {
			w.publish(ctx, events.BatchJobStarted, events.BatchJobStartedPayload{
				BatchID: p.BatchID, Index: i, Total: total, ProfileID: job.ProfileID(),
			})
		},
		OnResult: func(i, total int, res batch.Result) {
			w.publish(ctx, events.BatchJobDone, events.BatchJobDonePayload{
				BatchID:   p.BatchID,
				Index:     i,
				Total:     total,
				Provider:  res.Provider,
				Model:     res.Model,
				ProfileID: res.ProfileID,
				OK:        res.OK,
				Text:      res.Text,
				Message:   res.Message,
			})
		},
	})
	_, sum := runner.Run(runCtx, jobs)

	w.publish(ctx, events.BatchDone, events.BatchDonePayload{
		BatchID:   p.BatchID,
		Total:     sum.Total,
		Completed: sum.Completed,
		Failed:    sum.Failed,
		Cancelled: sum.Cancelled,
	})
	log.Info().
		Str("batch", p.BatchID).
		Int("completed", sum.Completed).
		Int("failed", sum.Failed).
		Bool("cancelled", sum.Cancelled).
		Msg("batch finished")
	return sum
}

func (w *worker) publish(ctx context.Context, key string, payload any) {
	if err := w.pub.PublishEvent(ctx, key, payload); err != nil {
		log.Error().Err(err).Str("key", key).Msg("publish failed")
	}
}
