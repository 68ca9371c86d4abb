package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/sqlutil"
)

// Repository implements availability slot data access
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new availability repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const slotColumns = `id, team_id, relationship_id, day_of_week, start_time, end_time, max_matches_per_week, court_type, created_at`

// CreateSlot inserts a slot. A duplicate (team, day, start, end) violates the
// table's unique constraint and is surfaced as a validation error.
func (r *Repository) CreateSlot(ctx context.Context, req CreateSlotRequest) (*models.AvailabilitySlot, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO availability_slots (id, team_id, relationship_id, day_of_week, start_time, end_time, max_matches_per_week, court_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+slotColumns,
		req.ID, req.TeamID, req.RelationshipID, req.DayOfWeek, req.StartTime, req.EndTime,
		req.MaxMatchesPerWeek, sqlutil.ToSqlString(req.CourtType),
	)

	slot, err := scanSlot(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperr.Validationf("slot", "duplicate slot for (day, start, end)")
		}
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	return slot, nil
}

// GetSlot retrieves a slot by ID
func (r *Repository) GetSlot(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM availability_slots WHERE id = $1`, id)

	slot, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("slot", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, nil
}

// ListSlotsByTeam retrieves all slots for a team
func (r *Repository) ListSlotsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.AvailabilitySlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM availability_slots WHERE team_id = $1 ORDER BY day_of_week, start_time`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots by team: %w", err)
	}
	defer rows.Close()
	return collectSlots(rows)
}

// ListVenueSlotsForVendor retrieves each slot pointing at one of the vendor's
// venues, joined with its relationship. This is the candidate generation feed.
func (r *Repository) ListVenueSlotsForVendor(ctx context.Context, vendorID uuid.UUID) ([]VenueSlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.team_id, s.relationship_id, s.day_of_week, s.start_time, s.end_time,
		       s.max_matches_per_week, s.court_type, s.created_at,
		       tvr.id, tvr.team_id, tvr.venue_id, tvr.venue_rating, tvr.matches_played, tvr.created_at, tvr.updated_at
		FROM availability_slots s
		JOIN team_venue_relationships tvr ON tvr.id = s.relationship_id
		JOIN venues v ON v.id = tvr.venue_id
		WHERE v.vendor_id = $1`,
		vendorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list venue slots for vendor: %w", err)
	}
	defer rows.Close()

	var out []VenueSlot
	for rows.Next() {
		var s models.AvailabilitySlot
		var rel models.TeamVenueRelationship
		var courtType sql.NullString
		if err := rows.Scan(
			&s.ID, &s.TeamID, &s.RelationshipID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.MaxMatchesPerWeek, &courtType, &s.CreatedAt,
			&rel.ID, &rel.TeamID, &rel.VenueID, &rel.VenueRating, &rel.MatchesPlayed, &rel.CreatedAt, &rel.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan venue slot: %w", err)
		}
		s.CourtType = sqlutil.FromSqlStringPtr(courtType)
		out = append(out, VenueSlot{Slot: s, VenueID: rel.VenueID, Rel: rel})
	}
	return out, rows.Err()
}

// DeleteSlot deletes a slot by ID
func (r *Repository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("slot", id)
	}
	return nil
}

// CountMatchesInWeek counts a team's pending proposals plus confirmed
// fixtures with a scheduled time inside [weekStart, weekEnd). This is the
// in-flight load counted against the weekly cap.
func (r *Repository) CountMatchesInWeek(ctx context.Context, teamID uuid.UUID, weekStart, weekEnd time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM match_proposals
			 WHERE (home_team_id = $1 OR away_team_id = $1)
			   AND status IN ('PENDING', 'SCHEDULED')
			   AND scheduled_time >= $2 AND scheduled_time < $3)
			+
			(SELECT COUNT(*) FROM fixtures
			 WHERE (home_team_id = $1 OR away_team_id = $1)
			   AND status = 'CONFIRMED'
			   AND scheduled_time >= $2 AND scheduled_time < $3
			   AND proposal_id NOT IN (
			       SELECT id FROM match_proposals
			       WHERE status = 'SCHEDULED'
			         AND scheduled_time >= $2 AND scheduled_time < $3))`,
		teamID, weekStart, weekEnd,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches in week: %w", err)
	}
	return count, nil
}

func collectSlots(rows *sql.Rows) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*models.AvailabilitySlot, error) {
	var s models.AvailabilitySlot
	var courtType sql.NullString
	if err := row.Scan(&s.ID, &s.TeamID, &s.RelationshipID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
		&s.MaxMatchesPerWeek, &courtType, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.CourtType = sqlutil.FromSqlStringPtr(courtType)
	return &s, nil
}
