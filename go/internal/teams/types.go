package teams

import (
	"github.com/google/uuid"
)

// CreateTeamRequest represents a request to create a new team
type CreateTeamRequest struct {
	ID        uuid.UUID `json:"id"`
	SportID   string    `json:"sport_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	City      string    `json:"city"`
	CaptainID uuid.UUID `json:"captain_id"`
	HomeLat   *float64  `json:"home_lat,omitempty"`
	HomeLng   *float64  `json:"home_lng,omitempty"`
}

// CreateVenueRequest represents a request to create a new venue
type CreateVenueRequest struct {
	ID       uuid.UUID `json:"id"`
	VendorID uuid.UUID `json:"vendor_id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Lat      *float64  `json:"lat,omitempty"`
	Lng      *float64  `json:"lng,omitempty"`
}

// RecordOutcomeRequest carries the venue-affinity feedback applied to a
// team/venue relationship after a fixture is played.
type RecordOutcomeRequest struct {
	TeamID      uuid.UUID `json:"team_id"`
	VenueID     uuid.UUID `json:"venue_id"`
	VenueRating *float64  `json:"venue_rating,omitempty"` // 1-5, optional captain rating
}
