package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/outbox"
	"github.com/mcdev12/pitchside/go/internal/sqlutil"
)

// Repository implements proposal and fixture data access. All lifecycle
// transitions are conditional updates keyed on the current status so
// concurrent actors cannot revive a terminal proposal.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new proposal repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const proposalColumns = `id, home_team_id, away_team_id, venue_id, vendor_id, scheduled_time,
	duration_min, ai_score, scoring_factors, status, home_team_accepted, home_responded_at,
	away_team_accepted, away_responded_at, accepted_at, expires_at, cancelled_at,
	cancellation_reason, created_at, updated_at`

// CreateProposal persists a scored candidate as a PENDING proposal and stages
// a created event in the same transaction.
func (r *Repository) CreateProposal(ctx context.Context, req CreateProposalRequest) (*models.MatchProposal, error) {
	factors, err := json.Marshal(req.ScoringFactors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring factors: %w", err)
	}

	var proposal *models.MatchProposal
	err = sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO match_proposals (id, home_team_id, away_team_id, venue_id, vendor_id,
				scheduled_time, duration_min, ai_score, scoring_factors, status, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'PENDING', $10)
			RETURNING `+proposalColumns,
			req.ID, req.HomeTeamID, req.AwayTeamID, req.VenueID, req.VendorID,
			req.ScheduledTime, req.DurationMin, req.AIScore, factors, req.ExpiresAt,
		)

		proposal, err = scanProposal(row)
		if err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}
		return stageEvent(ctx, tx, proposal, outbox.EventProposalCreated)
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// GetProposal retrieves a proposal by ID
func (r *Repository) GetProposal(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	return getProposal(ctx, r.db, id)
}

// ListProposals retrieves proposals narrowed by any combination of vendor,
// status and team. Callers ensure at least one of vendor or team is set.
func (r *Repository) ListProposals(ctx context.Context, filter ListProposalsFilter) ([]models.MatchProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM match_proposals WHERE true`
	var args []interface{}
	if filter.VendorID != uuid.Nil {
		args = append(args, filter.VendorID)
		query += fmt.Sprintf(" AND vendor_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		query += fmt.Sprintf(" AND (home_team_id = $%d OR away_team_id = $%d)", len(args), len(args))
	}
	query += " ORDER BY scheduled_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []models.MatchProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

// AcceptSide records one captain's acceptance. The write fires only while the
// proposal is still PENDING and that side has not responded, so replays and
// races against a terminal transition are no-ops. The fresh row is returned
// either way.
func (r *Repository) AcceptSide(ctx context.Context, id uuid.UUID, side models.ProposalSide) (*models.MatchProposal, error) {
	query := `
		UPDATE match_proposals
		SET home_team_accepted = TRUE, home_responded_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'PENDING' AND home_team_accepted IS NULL`
	if side == models.ProposalSideAway {
		query = `
		UPDATE match_proposals
		SET away_team_accepted = TRUE, away_responded_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'PENDING' AND away_team_accepted IS NULL`
	}

	var proposal *models.MatchProposal
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to record acceptance: %w", err)
		}

		proposal, err = getProposal(ctx, tx, id)
		if err != nil {
			return err
		}

		if n, _ := res.RowsAffected(); n == 1 {
			return stageEvent(ctx, tx, proposal, outbox.EventProposalResponded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// Promote moves a fully accepted proposal to SCHEDULED and creates the
// confirmed fixture. The status guard makes concurrent promotions converge:
// the loser of the race observes SCHEDULED and inserts nothing.
func (r *Repository) Promote(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	var proposal *models.MatchProposal
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE match_proposals
			SET status = 'SCHEDULED', accepted_at = now(), updated_at = now()
			WHERE id = $1 AND status = 'PENDING'
			  AND home_team_accepted = TRUE AND away_team_accepted = TRUE
			RETURNING `+proposalColumns,
			id,
		)

		var err error
		proposal, err = scanProposal(row)
		if errors.Is(err, sql.ErrNoRows) {
			proposal, err = getProposal(ctx, tx, id)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to promote proposal: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO fixtures (id, proposal_id, home_team_id, away_team_id, venue_id,
				scheduled_time, duration_min, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'CONFIRMED')`,
			uuid.New(), proposal.ID, proposal.HomeTeamID, proposal.AwayTeamID,
			proposal.VenueID, proposal.ScheduledTime, proposal.DurationMin,
		)
		if err != nil {
			return fmt.Errorf("failed to create fixture: %w", err)
		}
		return stageEvent(ctx, tx, proposal, outbox.EventProposalScheduled)
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// Cancel moves a PENDING proposal to CANCELLED with a reason. If the proposal
// is already terminal the row is returned untouched for the caller to judge.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.MatchProposal, error) {
	var proposal *models.MatchProposal
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE match_proposals
			SET status = 'CANCELLED', cancelled_at = now(), cancellation_reason = $2, updated_at = now()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING `+proposalColumns,
			id, reason,
		)

		var err error
		proposal, err = scanProposal(row)
		if errors.Is(err, sql.ErrNoRows) {
			proposal, err = getProposal(ctx, tx, id)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to cancel proposal: %w", err)
		}
		return stageEvent(ctx, tx, proposal, outbox.EventProposalCancelled)
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// SweepExpired transitions every PENDING proposal past its deadline to
// EXPIRED and returns the number transitioned. The status guard keeps the
// sweep from racing a last-second acceptance, and re-running it is free.
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			UPDATE match_proposals
			SET status = 'EXPIRED', updated_at = now()
			WHERE status = 'PENDING' AND expires_at < $1
			RETURNING `+proposalColumns,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to sweep expired proposals: %w", err)
		}
		defer rows.Close()

		var expired []*models.MatchProposal
		for rows.Next() {
			p, err := scanProposal(rows)
			if err != nil {
				return fmt.Errorf("failed to scan expired proposal: %w", err)
			}
			expired = append(expired, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, p := range expired {
			if err := stageEvent(ctx, tx, p, outbox.EventProposalExpired); err != nil {
				return err
			}
		}
		count = len(expired)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// NextExpiry returns the earliest deadline among PENDING proposals, or nil
// when none are pending.
func (r *Repository) NextExpiry(ctx context.Context) (*time.Time, error) {
	var next sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT min(expires_at) FROM match_proposals WHERE status = 'PENDING'`,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to query next expiry: %w", err)
	}
	return sqlutil.FromSqlTime(next), nil
}

// ExistsActiveProposal reports whether a PENDING or SCHEDULED proposal already
// covers the pair/venue/time in either home-away orientation.
func (r *Repository) ExistsActiveProposal(ctx context.Context, homeTeamID, awayTeamID, venueID uuid.UUID, scheduledTime time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM match_proposals
			WHERE venue_id = $3 AND scheduled_time = $4
			  AND status IN ('PENDING', 'SCHEDULED')
			  AND ((home_team_id = $1 AND away_team_id = $2)
			    OR (home_team_id = $2 AND away_team_id = $1))
		)`,
		homeTeamID, awayTeamID, venueID, scheduledTime,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for active proposal: %w", err)
	}
	return exists, nil
}

// IsVenueFree reports whether no confirmed fixture or active proposal overlaps
// the window at the venue.
func (r *Repository) IsVenueFree(ctx context.Context, venueID uuid.UUID, start, end time.Time) (bool, error) {
	var busy bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM fixtures
			WHERE venue_id = $1 AND status = 'CONFIRMED'
			  AND scheduled_time < $3
			  AND scheduled_time + make_interval(mins => duration_min) > $2
		) OR EXISTS (
			SELECT 1 FROM match_proposals
			WHERE venue_id = $1 AND status IN ('PENDING', 'SCHEDULED')
			  AND scheduled_time < $3
			  AND scheduled_time + make_interval(mins => duration_min) > $2
		)`,
		venueID, start, end,
	).Scan(&busy)
	if err != nil {
		return false, fmt.Errorf("failed to check venue availability: %w", err)
	}
	return !busy, nil
}

const fixtureColumns = `id, proposal_id, home_team_id, away_team_id, venue_id, scheduled_time, duration_min, status, created_at`

// GetFixture retrieves a fixture by ID
func (r *Repository) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fixtureColumns+` FROM fixtures WHERE id = $1`, id)

	fixture, err := scanFixture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("fixture", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture: %w", err)
	}
	return fixture, nil
}

// MarkFixturePlayed moves a CONFIRMED fixture to PLAYED and stages a played
// event in the same transaction. Replaying the call for an already-played
// fixture returns the row unchanged without a second event.
func (r *Repository) MarkFixturePlayed(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	var fixture *models.Fixture
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE fixtures SET status = 'PLAYED'
			WHERE id = $1 AND status = 'CONFIRMED'
			RETURNING `+fixtureColumns,
			id,
		)

		f, err := scanFixture(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to mark fixture played: %w", err)
		}

		payload, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal fixture event: %w", err)
		}
		if err := outbox.InsertTx(ctx, tx, outbox.NewEvent(f.ID, outbox.EventFixturePlayed, payload)); err != nil {
			return err
		}
		fixture = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fixture == nil {
		return r.GetFixture(ctx, id)
	}
	return fixture, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getProposal(ctx context.Context, q querier, id uuid.UUID) (*models.MatchProposal, error) {
	row := q.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM match_proposals WHERE id = $1`, id)

	proposal, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("proposal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return proposal, nil
}

func stageEvent(ctx context.Context, tx *sql.Tx, p *models.MatchProposal, eventType string) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal event: %w", err)
	}
	return outbox.InsertTx(ctx, tx, outbox.NewEvent(p.ID, eventType, payload))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProposal(row rowScanner) (*models.MatchProposal, error) {
	var p models.MatchProposal
	var factors []byte
	var homeAccepted, awayAccepted sql.NullBool
	var homeResponded, awayResponded, acceptedAt, cancelledAt sql.NullTime
	var reason sql.NullString

	err := row.Scan(
		&p.ID, &p.HomeTeamID, &p.AwayTeamID, &p.VenueID, &p.VendorID, &p.ScheduledTime,
		&p.DurationMin, &p.AIScore, &factors, &p.Status, &homeAccepted, &homeResponded,
		&awayAccepted, &awayResponded, &acceptedAt, &p.ExpiresAt, &cancelledAt,
		&reason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(factors, &p.ScoringFactors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scoring factors: %w", err)
	}
	p.HomeTeamAccepted = sqlutil.FromSqlBool(homeAccepted)
	p.HomeRespondedAt = sqlutil.FromSqlTime(homeResponded)
	p.AwayTeamAccepted = sqlutil.FromSqlBool(awayAccepted)
	p.AwayRespondedAt = sqlutil.FromSqlTime(awayResponded)
	p.AcceptedAt = sqlutil.FromSqlTime(acceptedAt)
	p.CancelledAt = sqlutil.FromSqlTime(cancelledAt)
	p.CancellationReason = sqlutil.FromSqlStringPtr(reason)
	return &p, nil
}

func scanFixture(row rowScanner) (*models.Fixture, error) {
	var f models.Fixture
	if err := row.Scan(&f.ID, &f.ProposalID, &f.HomeTeamID, &f.AwayTeamID, &f.VenueID,
		&f.ScheduledTime, &f.DurationMin, &f.Status, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
