package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/sqlutil"
)

// Repository implements team, venue and relationship data access
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new teams repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const teamColumns = `id, sport_id, name, code, city, captain_id, home_lat, home_lng, created_at`

// CreateTeam creates a new team
func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, sport_id, name, code, city, captain_id, home_lat, home_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+teamColumns,
		req.ID, req.SportID, req.Name, req.Code, req.City, req.CaptainID,
		sqlutil.ToSqlFloat64(req.HomeLat), sqlutil.ToSqlFloat64(req.HomeLng),
	)

	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetTeam retrieves a team by ID
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)

	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("team", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// ListTeamsForVendor retrieves all teams that have a venue relationship with
// any of the vendor's venues.
func (r *Repository) ListTeamsForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT t.id, t.sport_id, t.name, t.code, t.city, t.captain_id, t.home_lat, t.home_lng, t.created_at
		FROM teams t
		JOIN team_venue_relationships tvr ON tvr.team_id = t.id
		JOIN venues v ON v.id = tvr.venue_id
		WHERE v.vendor_id = $1`,
		vendorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for vendor: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// CreateVenue creates a new venue for a vendor
func (r *Repository) CreateVenue(ctx context.Context, req CreateVenueRequest) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO venues (id, vendor_id, name, address, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, vendor_id, name, address, lat, lng, created_at`,
		req.ID, req.VendorID, req.Name, req.Address,
		sqlutil.ToSqlFloat64(req.Lat), sqlutil.ToSqlFloat64(req.Lng),
	)

	venue, err := scanVenue(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return venue, nil
}

// GetVenue retrieves a venue by ID
func (r *Repository) GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, vendor_id, name, address, lat, lng, created_at FROM venues WHERE id = $1`, id)

	venue, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("venue", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return venue, nil
}

// ListVenuesByVendor retrieves all venues run by a vendor
func (r *Repository) ListVenuesByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Venue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vendor_id, name, address, lat, lng, created_at FROM venues WHERE vendor_id = $1`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues by vendor: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, *venue)
	}
	return venues, rows.Err()
}

// ListVendorIDs retrieves every vendor with at least one venue
func (r *Repository) ListVendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT vendor_id FROM venues`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vendor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const relationshipColumns = `id, team_id, venue_id, venue_rating, matches_played, created_at, updated_at`

// EnsureRelationship returns the team/venue relationship, creating it with a
// neutral rating on first interaction.
func (r *Repository) EnsureRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO team_venue_relationships (id, team_id, venue_id, venue_rating, matches_played)
		VALUES ($1, $2, $3, 3.0, 0)
		ON CONFLICT (team_id, venue_id) DO UPDATE SET updated_at = now()
		RETURNING `+relationshipColumns,
		uuid.New(), teamID, venueID,
	)

	rel, err := scanRelationship(row)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure relationship: %w", err)
	}
	return rel, nil
}

// GetRelationship retrieves the relationship between a team and a venue
func (r *Repository) GetRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM team_venue_relationships WHERE team_id = $1 AND venue_id = $2`,
		teamID, venueID)

	rel, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("relationship", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// ApplyOutcome bumps matches_played and folds an optional captain rating into
// the aggregate venue rating as an incremental average.
func (r *Repository) ApplyOutcome(ctx context.Context, req RecordOutcomeRequest) (*models.TeamVenueRelationship, error) {
	var row *sql.Row
	if req.VenueRating != nil {
		row = r.db.QueryRowContext(ctx, `
			UPDATE team_venue_relationships
			SET matches_played = matches_played + 1,
			    venue_rating = (venue_rating * matches_played + $3) / (matches_played + 1),
			    updated_at = now()
			WHERE team_id = $1 AND venue_id = $2
			RETURNING `+relationshipColumns,
			req.TeamID, req.VenueID, *req.VenueRating)
	} else {
		row = r.db.QueryRowContext(ctx, `
			UPDATE team_venue_relationships
			SET matches_played = matches_played + 1, updated_at = now()
			WHERE team_id = $1 AND venue_id = $2
			RETURNING `+relationshipColumns,
			req.TeamID, req.VenueID)
	}

	rel, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("relationship", req.TeamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply outcome to relationship: %w", err)
	}
	return rel, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	var lat, lng sql.NullFloat64
	if err := row.Scan(&t.ID, &t.SportID, &t.Name, &t.Code, &t.City, &t.CaptainID, &lat, &lng, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.HomeLat = sqlutil.FromSqlFloat64(lat)
	t.HomeLng = sqlutil.FromSqlFloat64(lng)
	return &t, nil
}

func scanVenue(row rowScanner) (*models.Venue, error) {
	var v models.Venue
	var lat, lng sql.NullFloat64
	if err := row.Scan(&v.ID, &v.VendorID, &v.Name, &v.Address, &lat, &lng, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Lat = sqlutil.FromSqlFloat64(lat)
	v.Lng = sqlutil.FromSqlFloat64(lng)
	return &v, nil
}

func scanRelationship(row rowScanner) (*models.TeamVenueRelationship, error) {
	var rel models.TeamVenueRelationship
	if err := row.Scan(&rel.ID, &rel.TeamID, &rel.VenueID, &rel.VenueRating, &rel.MatchesPlayed, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
		return nil, err
	}
	return &rel, nil
}
