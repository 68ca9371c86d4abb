package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/orchestrator"
	"github.com/mcdev12/pitchside/go/internal/outbox"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadAppConfig(getEnv("PITCHSIDE_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer db.Close()

	services, err := setupServices(db, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	natsURL := getEnv("NATS_URL", nats.DefaultURL)

	publisherCfg := outbox.DefaultJetStreamConfig()
	publisherCfg.URL = natsURL
	publisher, err := outbox.NewJetStreamPublisher(publisherCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	defer publisher.Close()

	outboxWorker := outbox.NewWorker(db, publisher, outbox.DefaultConfig())

	scheduler := orchestrator.NewScheduler(
		orchestrator.Config{
			GenerateInterval: cfg.Scheduler.GenerateInterval.Std(),
			WindowAhead:      cfg.Scheduler.WindowAhead.Std(),
			SweepFallback:    cfg.Scheduler.SweepFallback.Std(),
		},
		services.Proposals,
		services.Engine,
		services.Teams,
		clockwork.NewRealClock(),
	)

	gw, err := setupGateway(services, scheduler, natsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up gateway")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := outboxWorker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox worker")
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	gw.start(ctx)

	log.Info().
		Str("season", cfg.Season).
		Str("nats_url", natsURL).
		Msg("pitchside running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	gw.shutdown()
	cancel()
	if err := outboxWorker.Stop(); err != nil {
		log.Error().Err(err).Msg("outbox worker stop failed")
	}

	log.Info().Msg("pitchside shutdown complete")
}
