// gateway is the public HTTP API. It runs generations against the
// configured providers, stores prompt profiles, queues batch runs on
// RabbitMQ and relays every event to browsers over WebSocket.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/services/gateway/internal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	_ = godotenv.Load()
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := internal.ConfigFromEnv()
	gw, err := internal.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("gateway init")
	}
	defer gw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; cancel() }()

	log.Info().
		Str("profiles", cfg.ProfileDir).
		Str("ollama", cfg.OllamaBaseURL).
		Str("localai", cfg.LocalAIBaseURL).
		Bool("batch", cfg.AMQPURL != "").
		Msg("gateway starting")

	if err := gw.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}
