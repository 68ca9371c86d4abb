package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/geo"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeamsForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Team, error)
	CreateVenue(ctx context.Context, req CreateVenueRequest) (*models.Venue, error)
	GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	ListVenuesByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Venue, error)
	ListVendorIDs(ctx context.Context) ([]uuid.UUID, error)
	EnsureRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error)
	GetRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error)
	ApplyOutcome(ctx context.Context, req RecordOutcomeRequest) (*models.TeamVenueRelationship, error)
}

// Geocoder resolves a street address to coordinates. May be nil, in which
// case venues without explicit coordinates stay unlocated and score the
// neutral travel default.
type Geocoder interface {
	GeocodeOrNil(address string) *geo.Point
}

// App handles team, venue and venue-affinity business logic
type App struct {
	repo     TeamsRepository
	geocoder Geocoder
}

// NewApp creates a new teams App. geocoder may be nil.
func NewApp(repo TeamsRepository, geocoder Geocoder) *App {
	return &App{repo: repo, geocoder: geocoder}
}

// CreateTeam creates a new team with validation
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("name", "is required")
	}
	if req.SportID == "" {
		return nil, apperr.Validationf("sport_id", "is required")
	}
	if req.CaptainID == uuid.Nil {
		return nil, apperr.Validationf("captain_id", "is required")
	}
	if (req.HomeLat == nil) != (req.HomeLng == nil) {
		return nil, apperr.Validationf("home_lat", "latitude and longitude must be set together")
	}

	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Info().Str("team_id", team.ID.String()).Str("name", team.Name).Msg("created team")
	return team, nil
}

// GetTeam retrieves a team by ID
func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// ListTeamsForVendor lists teams with a relationship at any of the vendor's venues
func (a *App) ListTeamsForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Team, error) {
	return a.repo.ListTeamsForVendor(ctx, vendorID)
}

// CreateVenue creates a new venue with validation
func (a *App) CreateVenue(ctx context.Context, req CreateVenueRequest) (*models.Venue, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("name", "is required")
	}
	if req.VendorID == uuid.Nil {
		return nil, apperr.Validationf("vendor_id", "is required")
	}

	if req.Lat == nil && req.Lng == nil && req.Address != "" && a.geocoder != nil {
		if p := a.geocoder.GeocodeOrNil(req.Address); p != nil {
			req.Lat, req.Lng = &p.Lat, &p.Lng
		}
	}

	venue, err := a.repo.CreateVenue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}

	log.Info().Str("venue_id", venue.ID.String()).Str("name", venue.Name).Msg("created venue")
	return venue, nil
}

// GetVenue retrieves a venue by ID
func (a *App) GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	return a.repo.GetVenue(ctx, id)
}

// ListVenuesByVendor lists all venues run by a vendor
func (a *App) ListVenuesByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Venue, error) {
	return a.repo.ListVenuesByVendor(ctx, vendorID)
}

// ListVendorIDs lists every vendor with at least one venue
func (a *App) ListVendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	return a.repo.ListVendorIDs(ctx)
}

// EnsureRelationship returns the team's relationship with a venue, creating
// it on first interaction.
func (a *App) EnsureRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error) {
	return a.repo.EnsureRelationship(ctx, teamID, venueID)
}

// GetRelationship retrieves the relationship between a team and a venue
func (a *App) GetRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error) {
	return a.repo.GetRelationship(ctx, teamID, venueID)
}

// RecordOutcome folds a played fixture into the team's venue affinity
func (a *App) RecordOutcome(ctx context.Context, req RecordOutcomeRequest) (*models.TeamVenueRelationship, error) {
	if req.VenueRating != nil && (*req.VenueRating < 1 || *req.VenueRating > 5) {
		return nil, apperr.Validationf("venue_rating", "must be between 1 and 5")
	}

	rel, err := a.repo.ApplyOutcome(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("team_id", req.TeamID.String()).
		Str("venue_id", req.VenueID.String()).
		Float64("venue_rating", rel.VenueRating).
		Int("matches_played", rel.MatchesPlayed).
		Msg("updated venue affinity")
	return rel, nil
}
