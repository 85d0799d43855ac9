package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/events"
)

const (
	telegramAPI = "https://api.telegram.org/bot"

	// failures listed per message
	maxListedFailures = 10
)

type notifier struct {
	apiBase string
	tgToken string
	tgChat  string
	http    *http.Client

	mu       sync.Mutex
	failures map[string][]events.BatchJobDonePayload
}

func newNotifier(apiBase, token, chat string, client *http.Client) *notifier {
	return &notifier{
		apiBase:  apiBase,
		tgToken:  token,
		tgChat:   chat,
		http:     client,
		failures: make(map[string][]events.BatchJobDonePayload),
	}
}

func (n *notifier) handle(ctx context.Context, d amqp.Delivery) error {
	env, err := events.UnwrapEnvelope(d.Body)
	if err != nil {
		return err
	}
	switch env.RoutingKey {
	case events.BatchJobDone:
		p, err := events.Decode[events.BatchJobDonePayload](env)
		if err != nil {
			return err
		}
		if !p.OK {
			n.mu.Lock()
			n.failures[p.BatchID] = append(n.failures[p.BatchID], *p)
			n.mu.Unlock()
		}
		return nil

	case events.BatchDone:
		p, err := events.Decode[events.BatchDonePayload](env)
		if err != nil {
			return err
		}
		n.mu.Lock()
		failed := n.failures[p.BatchID]
		delete(n.failures, p.BatchID)
		n.mu.Unlock()

		log.Info().
			Str("batch", p.BatchID).
			Int("completed", p.Completed).
			Int("failed", p.Failed).
			Msg("sending notification")

		if n.tgToken == "" {
			log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, skipping notification")
			return nil
		}
		return n.sendMessage(ctx, summary(p, failed))
	}
	return nil
}

func summary(p *events.BatchDonePayload, failed []events.BatchJobDonePayload) string {
	var sb strings.Builder
	status := "✅ Batch complete"
	switch {
	case p.Cancelled:
		status = "⏹ Batch cancelled"
	case p.Failed > 0:
		status = "⚠️ Batch finished with failures"
	}
	fmt.Fprintf(&sb, "%s\n%d/%d ok, %d failed\n`batch: %s`", status, p.Completed, p.Total, p.Failed, p.BatchID)

	for i, f := range failed {
		if i == maxListedFailures {
			fmt.Fprintf(&sb, "\n… and %d more", len(failed)-i)
			break
		}
		fmt.Fprintf(&sb, "\n• %s: %s", f.ProfileID, f.Message)
	}
	return sb.String()
}

func (n *notifier) sendMessage(ctx context.Context, text string) error {
	body, _ := json.Marshal(map[string]string{
		"chat_id":    n.tgChat,
		"text":       text,
		"parse_mode": "Markdown",
	})
	req, err := http.NewRequestWithContext(ctx, "POST",
		n.apiBase+n.tgToken+"/sendMessage",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram %d: %s", resp.StatusCode, b)
	}
	return nil
}
