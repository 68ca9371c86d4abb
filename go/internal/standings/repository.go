package standings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/sqlutil"
)

// Repository implements standings and performance data access
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new standings repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SavePerformance persists one team's immutable record of a completed fixture.
func (r *Repository) SavePerformance(ctx context.Context, perf models.MatchPerformance) error {
	var ratings []byte
	if perf.PlayerRatings != nil {
		var err error
		ratings, err = json.Marshal(perf.PlayerRatings)
		if err != nil {
			return fmt.Errorf("failed to marshal player ratings: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO match_performances (id, fixture_id, team_id, opponent_id, result,
			goals_for, goals_against, player_ratings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		perf.ID, perf.FixtureID, perf.TeamID, perf.OpponentID, perf.Result,
		perf.GoalsFor, perf.GoalsAgainst, ratings,
	)
	if err != nil {
		return fmt.Errorf("failed to save performance: %w", err)
	}
	return nil
}

const standingColumns = `id, team_id, sport_id, season, matches_played, wins, draws, losses,
	goals_for, goals_against, goal_difference, points, position, form, updated_at`

// GetStanding retrieves a team's standing for a sport and season
func (r *Repository) GetStanding(ctx context.Context, teamID uuid.UUID, sportID, season string) (*models.TeamStanding, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+standingColumns+` FROM team_standings WHERE team_id = $1 AND sport_id = $2 AND season = $3`,
		teamID, sportID, season)

	standing, err := scanStanding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("standing", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get standing: %w", err)
	}
	return standing, nil
}

// UpsertStanding writes a team's recomputed standing
func (r *Repository) UpsertStanding(ctx context.Context, st models.TeamStanding) (*models.TeamStanding, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO team_standings (id, team_id, sport_id, season, matches_played, wins, draws,
			losses, goals_for, goals_against, goal_difference, points, position, form)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (team_id, sport_id, season) DO UPDATE SET
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			draws = EXCLUDED.draws,
			losses = EXCLUDED.losses,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against,
			goal_difference = EXCLUDED.goal_difference,
			points = EXCLUDED.points,
			position = EXCLUDED.position,
			form = EXCLUDED.form,
			updated_at = now()
		RETURNING `+standingColumns,
		st.ID, st.TeamID, st.SportID, st.Season, st.MatchesPlayed, st.Wins, st.Draws,
		st.Losses, st.GoalsFor, st.GoalsAgainst, st.GoalDifference, st.Points, st.Position, st.Form,
	)

	standing, err := scanStanding(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert standing: %w", err)
	}
	return standing, nil
}

// ListStandings retrieves the season table for a sport, best first
func (r *Repository) ListStandings(ctx context.Context, sportID, season string) ([]models.TeamStanding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+standingColumns+` FROM team_standings
		 WHERE sport_id = $1 AND season = $2
		 ORDER BY points DESC, goal_difference DESC, goals_for DESC`,
		sportID, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	defer rows.Close()

	var standings []models.TeamStanding
	for rows.Next() {
		st, err := scanStanding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, *st)
	}
	return standings, rows.Err()
}

// UpdatePositions writes the re-ranked table positions in one transaction.
func (r *Repository) UpdatePositions(ctx context.Context, ranked []models.TeamStanding) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		for _, st := range ranked {
			if _, err := tx.ExecContext(ctx,
				`UPDATE team_standings SET position = $2, updated_at = now() WHERE id = $1`,
				st.ID, st.Position,
			); err != nil {
				return fmt.Errorf("failed to update position: %w", err)
			}
		}
		return nil
	})
}

// ListPerformancesByTeam retrieves a team's match history, newest first
func (r *Repository) ListPerformancesByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]models.MatchPerformance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, fixture_id, team_id, opponent_id, result, goals_for, goals_against, player_ratings, created_at
		FROM match_performances
		WHERE team_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list performances: %w", err)
	}
	defer rows.Close()

	var perfs []models.MatchPerformance
	for rows.Next() {
		var p models.MatchPerformance
		var ratings []byte
		if err := rows.Scan(&p.ID, &p.FixtureID, &p.TeamID, &p.OpponentID, &p.Result,
			&p.GoalsFor, &p.GoalsAgainst, &ratings, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		if len(ratings) > 0 {
			if err := json.Unmarshal(ratings, &p.PlayerRatings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal player ratings: %w", err)
			}
		}
		perfs = append(perfs, p)
	}
	return perfs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStanding(row rowScanner) (*models.TeamStanding, error) {
	var st models.TeamStanding
	if err := row.Scan(&st.ID, &st.TeamID, &st.SportID, &st.Season, &st.MatchesPlayed,
		&st.Wins, &st.Draws, &st.Losses, &st.GoalsFor, &st.GoalsAgainst,
		&st.GoalDifference, &st.Points, &st.Position, &st.Form, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}
