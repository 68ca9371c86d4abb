package main

import (
	"context"
	"strings"
	"time"

	"github.com/mcdev12/pitchside/go/internal/gateway"
	"github.com/mcdev12/pitchside/go/internal/orchestrator"
	"github.com/rs/zerolog/log"
)

// gatewayStack bundles the HTTP service with the push-side components that
// feed it.
type gatewayStack struct {
	service  *gateway.Service
	manager  *gateway.ConnectionManager
	consumer *gateway.EventConsumer
}

func setupGateway(services *Services, scheduler *orchestrator.Scheduler, natsURL string) (*gatewayStack, error) {
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	consumerCfg := gateway.DefaultJetStreamConsumerConfig()
	consumerCfg.URL = natsURL
	consumer, err := gateway.NewEventConsumer(manager, consumerCfg)
	if err != nil {
		return nil, err
	}

	handlers := gateway.NewHandlers(
		services.Proposals,
		services.Engine,
		services.Standings,
		services.Availability,
		services.Teams,
		scheduler,
		gateway.NewWebSocketHandler(manager),
	)

	serverCfg := gateway.DefaultServerConfig()
	serverCfg.Addr = ":" + getEnv("GATEWAY_PORT", "8080")
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		serverCfg.AllowedOrigins = strings.Split(origins, ",")
	}

	return &gatewayStack{
		service:  gateway.NewService(serverCfg, handlers),
		manager:  manager,
		consumer: consumer,
	}, nil
}

func (g *gatewayStack) start(ctx context.Context) {
	go g.manager.Start(ctx)

	go func() {
		if err := g.consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()

	go func() {
		if err := g.service.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP gateway failed")
		}
	}()
}

func (g *gatewayStack) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.service.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP gateway shutdown failed")
	}
	if err := g.consumer.Stop(); err != nil {
		log.Error().Err(err).Msg("event consumer stop failed")
	}
}
