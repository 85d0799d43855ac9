// Package internal implements the gateway: the HTTP API in front of the
// providers and the profile store, plus the WebSocket event relay.
package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/mq"
	"github.com/forge-ai/promptforge/shared/profile"
	"github.com/forge-ai/promptforge/shared/provider"
)

// Gateway owns every dependency the HTTP handlers use.
type Gateway struct {
	cfg       Config
	providers *provider.Dispatcher
	store     profile.Store
	models    *ModelLister
	bus       *events.Bus
	hub       *Hub
	broker    *mq.Broker // nil when AMQP_URL is unset
}

// New wires a gateway. broker may be nil, which disables the batch routes.
func New(cfg Config, store profile.Store, providers *provider.Dispatcher, broker *mq.Broker) *Gateway {
	gw := &Gateway{
		cfg:       cfg,
		providers: providers,
		store:     store,
		models:    NewModelLister(cfg.OllamaBaseURL, cfg.LocalAIBaseURL, cfg.ModelsCacheTTL),
		bus:       events.NewBus(),
		hub:       NewHub(),
		broker:    broker,
	}
	gw.bus.On(events.All, gw.hub.Broadcast)
	gw.hub.OnCount = func(n int) {
		gw.bus.Emit(events.APIStatus, events.APIStatusPayload{Status: "ok", Clients: n})
	}
	return gw
}

// Open builds a gateway from configuration: the provider registry with env
// overrides, the file or S3 profile store, and the optional broker.
func Open(cfg Config) (*Gateway, error) {
	reg := provider.DefaultRegistry()
	reg.ApplyEnv(os.LookupEnv)
	if hosted := reg.RegisterHosted(os.LookupEnv); len(hosted) > 0 {
		log.Info().Strs("providers", hosted).Msg("hosted providers enabled")
	}
	providers := provider.NewDispatcher(reg, nil, provider.DefaultStubs()...)

	var store profile.Store
	if cfg.S3.Endpoint != "" {
		s3, err := profile.NewS3Store(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("profile store: %w", err)
		}
		log.Info().Str("endpoint", cfg.S3.Endpoint).Str("bucket", cfg.S3.Bucket).Msg("profiles on S3")
		store = s3
	} else {
		fs := profile.NewFileStore(cfg.ProfileDir)
		log.Info().Str("dir", fs.Root()).Msg("profiles on disk")
		store = fs
	}

	var broker *mq.Broker
	if cfg.AMQPURL != "" {
		b, err := mq.New(cfg.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("mq connect: %w", err)
		}
		broker = b
	}
	return New(cfg, store, providers, broker), nil
}

func (gw *Gateway) Bus() *events.Bus { return gw.bus }

func (gw *Gateway) Close() {
	gw.bus.Clear()
	if gw.broker != nil {
		gw.broker.Close()
	}
}

// Run serves until ctx ends.
func (gw *Gateway) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return gw.hub.Run(ctx) })
	g.Go(func() error { return gw.serveAPI(ctx) })

	if gw.broker != nil {
		deliveries, err := gw.broker.Subscribe("gw.batch.relay", "batch.#")
		if err != nil {
			return fmt.Errorf("subscribe batch relay: %w", err)
		}
		g.Go(func() error {
			return mq.Consume(ctx, deliveries, false, gw.relay)
		})
	}

	return g.Wait()
}

// relay forwards broker traffic to WebSocket clients.
func (gw *Gateway) relay(_ context.Context, d amqp.Delivery) error {
	env, err := events.UnwrapEnvelope(d.Body)
	if err != nil {
		return err
	}
	if env.RoutingKey == events.BatchRequested || env.RoutingKey == events.BatchCancel {
		return nil
	}
	gw.bus.Publish(env)
	return nil
}

func (gw *Gateway) serveAPI(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + gw.cfg.Port,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Info().Str("port", gw.cfg.Port).Msg("gateway online")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
