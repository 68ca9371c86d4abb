package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/pitchside/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

func setupDatabase() (*sql.DB, error) {
	cfg := dbconfig.NewConfigFromEnv()

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("database ready")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY,
		sport_id TEXT NOT NULL,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		city TEXT NOT NULL,
		captain_id UUID NOT NULL,
		home_lat DOUBLE PRECISION,
		home_lng DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id UUID PRIMARY KEY,
		vendor_id UUID NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS team_venue_relationships (
		id UUID PRIMARY KEY,
		team_id UUID NOT NULL REFERENCES teams(id),
		venue_id UUID NOT NULL REFERENCES venues(id),
		venue_rating DOUBLE PRECISION NOT NULL,
		matches_played INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (team_id, venue_id)
	)`,
	`CREATE TABLE IF NOT EXISTS availability_slots (
		id UUID PRIMARY KEY,
		team_id UUID NOT NULL REFERENCES teams(id),
		relationship_id UUID NOT NULL REFERENCES team_venue_relationships(id),
		day_of_week TEXT NOT NULL,
		start_time INT NOT NULL,
		end_time INT NOT NULL,
		max_matches_per_week INT NOT NULL,
		court_type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (team_id, day_of_week, start_time, end_time)
	)`,
	`CREATE TABLE IF NOT EXISTS match_proposals (
		id UUID PRIMARY KEY,
		home_team_id UUID NOT NULL REFERENCES teams(id),
		away_team_id UUID NOT NULL REFERENCES teams(id),
		venue_id UUID NOT NULL REFERENCES venues(id),
		vendor_id UUID NOT NULL,
		scheduled_time TIMESTAMPTZ NOT NULL,
		duration_min INT NOT NULL,
		ai_score DOUBLE PRECISION NOT NULL,
		scoring_factors JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		home_team_accepted BOOLEAN,
		home_responded_at TIMESTAMPTZ,
		away_team_accepted BOOLEAN,
		away_responded_at TIMESTAMPTZ,
		accepted_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ NOT NULL,
		cancelled_at TIMESTAMPTZ,
		cancellation_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_match_proposals_pending_expiry
		ON match_proposals (expires_at) WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS idx_match_proposals_vendor
		ON match_proposals (vendor_id, status)`,
	`CREATE TABLE IF NOT EXISTS fixtures (
		id UUID PRIMARY KEY,
		proposal_id UUID NOT NULL REFERENCES match_proposals(id),
		home_team_id UUID NOT NULL REFERENCES teams(id),
		away_team_id UUID NOT NULL REFERENCES teams(id),
		venue_id UUID NOT NULL REFERENCES venues(id),
		scheduled_time TIMESTAMPTZ NOT NULL,
		duration_min INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'CONFIRMED',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fixtures_venue_time
		ON fixtures (venue_id, scheduled_time)`,
	`CREATE TABLE IF NOT EXISTS match_performances (
		id UUID PRIMARY KEY,
		fixture_id UUID NOT NULL REFERENCES fixtures(id),
		team_id UUID NOT NULL REFERENCES teams(id),
		opponent_id UUID NOT NULL REFERENCES teams(id),
		result TEXT NOT NULL,
		goals_for INT NOT NULL,
		goals_against INT NOT NULL,
		player_ratings JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS team_standings (
		id UUID PRIMARY KEY,
		team_id UUID NOT NULL REFERENCES teams(id),
		sport_id TEXT NOT NULL,
		season TEXT NOT NULL,
		matches_played INT NOT NULL DEFAULT 0,
		wins INT NOT NULL DEFAULT 0,
		draws INT NOT NULL DEFAULT 0,
		losses INT NOT NULL DEFAULT 0,
		goals_for INT NOT NULL DEFAULT 0,
		goals_against INT NOT NULL DEFAULT 0,
		goal_difference INT NOT NULL DEFAULT 0,
		points INT NOT NULL DEFAULT 0,
		position INT NOT NULL DEFAULT 0,
		form TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (team_id, sport_id, season)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		sent_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_unsent
		ON outbox_events (created_at) WHERE sent_at IS NULL`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
