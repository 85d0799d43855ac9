// Package mq is the RabbitMQ client shared by the gateway, the batch worker
// and the notifier. All traffic goes through one topic exchange.
package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/events"
)

const (
	Exchange     = "promptforge.events"
	ExchangeType = "topic"

	connectAttempts = 10
)

// Broker wraps one AMQP connection and channel.
type Broker struct {
	url  string
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New connects to RabbitMQ, retrying with linear backoff, and declares the exchange.
func New(amqpURL string) (*Broker, error) {
	b := &Broker{url: amqpURL}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) connect() error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		b.conn, err = amqp.Dial(b.url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("RabbitMQ connection failed, retrying")
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return fmt.Errorf("rabbitmq connect after %d attempts: %w", connectAttempts, err)
	}

	b.ch, err = b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	return b.ch.ExchangeDeclare(
		Exchange,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// Publish sends a raw body to the exchange with the given routing key.
func (b *Broker) Publish(ctx context.Context, routingKey string, body []byte) error {
	return b.ch.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// PublishEvent wraps payload in an envelope and publishes it.
func (b *Broker) PublishEvent(ctx context.Context, routingKey string, payload any) error {
	body, err := events.Wrap(routingKey, payload)
	if err != nil {
		return fmt.Errorf("wrap %s: %w", routingKey, err)
	}
	return b.Publish(ctx, routingKey, body)
}

// Subscribe binds a durable queue to the exchange using a routing key pattern
// such as "batch.*" or "batch.#".
func (b *Broker) Subscribe(queueName, pattern string) (<-chan amqp.Delivery, error) {
	q, err := b.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	if err := b.ch.QueueBind(q.Name, pattern, Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s to %s: %w", queueName, pattern, err)
	}

	// one unacked message at a time per consumer
	if err := b.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return b.ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // manual ack
		false, false, false, nil,
	)
}

// Handler processes one delivery. A non-nil error nacks it.
type Handler func(context.Context, amqp.Delivery) error

// Consume runs handler for each delivery until ctx ends or the channel closes.
// Failed deliveries are requeued when requeue is set.
func Consume(ctx context.Context, deliveries <-chan amqp.Delivery, requeue bool, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := handler(ctx, d); err != nil {
				log.Error().Err(err).Str("key", d.RoutingKey).Msg("handler error")
				d.Nack(false, requeue)
			} else {
				d.Ack(false)
			}
		}
	}
}

// Close shuts down channel and connection.
func (b *Broker) Close() {
	if b.ch != nil {
		b.ch.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
