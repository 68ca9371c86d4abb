package standings

import (
	"github.com/google/uuid"
)

// RecordResultRequest confirms the outcome of a played fixture. Venue ratings
// are optional per-captain feedback folded into venue affinity.
type RecordResultRequest struct {
	FixtureID         uuid.UUID          `json:"fixture_id"`
	Season            string             `json:"season"`
	HomeGoals         int                `json:"home_goals"`
	AwayGoals         int                `json:"away_goals"`
	HomePlayerRatings map[string]float64 `json:"home_player_ratings,omitempty"`
	AwayPlayerRatings map[string]float64 `json:"away_player_ratings,omitempty"`
	HomeVenueRating   *float64           `json:"home_venue_rating,omitempty"`
	AwayVenueRating   *float64           `json:"away_venue_rating,omitempty"`
}
