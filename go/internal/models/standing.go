package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamStanding is a team's cumulative record within a sport and season.
// Recomputed incrementally after each recorded performance; Position is
// re-ranked across the whole season table.
type TeamStanding struct {
	ID             uuid.UUID `json:"id"`
	TeamID         uuid.UUID `json:"team_id"`
	SportID        string    `json:"sport_id"`
	Season         string    `json:"season"`
	MatchesPlayed  int       `json:"matches_played"`
	Wins           int       `json:"wins"`
	Draws          int       `json:"draws"`
	Losses         int       `json:"losses"`
	GoalsFor       int       `json:"goals_for"`
	GoalsAgainst   int       `json:"goals_against"`
	GoalDifference int       `json:"goal_difference"`
	Points         int       `json:"points"`
	Position       int       `json:"position"`
	// Form is the rolling most-recent-first result history, e.g. "WWDLW".
	Form      string    `json:"form"`
	UpdatedAt time.Time `json:"updated_at"`
}
