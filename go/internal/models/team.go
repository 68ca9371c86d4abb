package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a sports team in the system
type Team struct {
	ID        uuid.UUID `json:"id"`
	SportID   string    `json:"sport_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	City      string    `json:"city"`
	CaptainID uuid.UUID `json:"captain_id"`
	// HomeLat/HomeLng are the team's home area, used for travel distance
	// scoring. Teams without location data score a neutral default.
	HomeLat   *float64  `json:"home_lat,omitempty"`
	HomeLng   *float64  `json:"home_lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Venue represents a bookable venue run by a vendor
type Venue struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamVenueRelationship links a team to a venue operator. It carries the
// team's historical affinity for that venue: an aggregate rating and how many
// matches the team has played there. Created on first interaction, updated by
// the outcome feedback loop, never deleted while matches reference it.
type TeamVenueRelationship struct {
	ID            uuid.UUID `json:"id"`
	TeamID        uuid.UUID `json:"team_id"`
	VenueID       uuid.UUID `json:"venue_id"`
	VenueRating   float64   `json:"venue_rating"` // aggregate, 1.0 - 5.0
	MatchesPlayed int       `json:"matches_played"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
