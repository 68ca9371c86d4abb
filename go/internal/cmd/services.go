package main

import (
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/availability"
	"github.com/mcdev12/pitchside/go/internal/geo"
	"github.com/mcdev12/pitchside/go/internal/matchmaking"
	"github.com/mcdev12/pitchside/go/internal/proposal"
	"github.com/mcdev12/pitchside/go/internal/standings"
	"github.com/mcdev12/pitchside/go/internal/teams"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Services holds the wired application layer.
type Services struct {
	Teams        *teams.App
	Availability *availability.App
	Proposals    *proposal.App
	Engine       *matchmaking.Engine
	Standings    *standings.App
}

// setupServices wires database layer, repository layer and app layer.
func setupServices(db *sql.DB, cfg AppConfig) (*Services, error) {
	clock := clockwork.NewRealClock()

	teamsRepo := teams.NewRepository(db)
	teamsApp := teams.NewApp(teamsRepo, setupGeocoder())

	availRepo := availability.NewRepository(db)
	availApp := availability.NewApp(availRepo)

	proposalRepo := proposal.NewRepository(db)
	proposalApp, err := proposal.NewApp(proposalRepo, availApp, clock, cfg.Proposal.ExpiryWindow.Std())
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal app: %w", err)
	}

	standingsRepo := standings.NewRepository(db)
	standingsApp, err := standings.NewApp(
		standingsRepo, proposalRepo, teamsApp, teamsApp,
		setupPointsCache(cfg), clock, cfg.Standings.FormLength,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create standings app: %w", err)
	}

	generator := matchmaking.NewGenerator(proposalRepo, availRepo, proposalRepo)
	engine, err := matchmaking.NewEngine(
		cfg.Matchmaking, cfg.Season, generator,
		availApp, teamsApp, standingsApp, proposalApp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matchmaking engine: %w", err)
	}

	return &Services{
		Teams:        teamsApp,
		Availability: availApp,
		Proposals:    proposalApp,
		Engine:       engine,
		Standings:    standingsApp,
	}, nil
}

// setupGeocoder returns an address geocoder, or nil when none is configured.
// Venues created without coordinates then score the neutral travel default.
func setupGeocoder() teams.Geocoder {
	baseURL := getEnv("GEOCODER_URL", "")
	if baseURL == "" {
		return nil
	}
	return geo.NewClient(baseURL, getEnv("GEOCODER_API_KEY", ""))
}

// setupPointsCache returns a Redis-backed points cache, or nil when no Redis
// address is configured. The standings app treats a nil cache as a miss on
// every read.
func setupPointsCache(cfg AppConfig) standings.PointsCache {
	addr := getEnv("REDIS_ADDR", "")
	if addr == "" {
		log.Info().Msg("REDIS_ADDR not set, standings points cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
	})
	log.Info().Str("addr", addr).Msg("standings points cache enabled")
	return standings.NewRedisPointsCache(client, cfg.Standings.PointsCacheTTL.Std())
}
