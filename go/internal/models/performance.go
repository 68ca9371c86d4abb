package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchResult is the outcome of a fixture from one team's point of view.
type MatchResult string

const (
	MatchResultWin  MatchResult = "WIN"
	MatchResultDraw MatchResult = "DRAW"
	MatchResultLoss MatchResult = "LOSS"
)

// FormCode returns the single letter pushed onto a team's rolling form.
func (r MatchResult) FormCode() string {
	switch r {
	case MatchResultWin:
		return "W"
	case MatchResultDraw:
		return "D"
	default:
		return "L"
	}
}

// MatchPerformance is one team's record of a completed fixture. Immutable
// once created.
type MatchPerformance struct {
	ID            uuid.UUID          `json:"id"`
	FixtureID     uuid.UUID          `json:"fixture_id"`
	TeamID        uuid.UUID          `json:"team_id"`
	OpponentID    uuid.UUID          `json:"opponent_id"`
	Result        MatchResult        `json:"result"`
	GoalsFor      int                `json:"goals_for"`
	GoalsAgainst  int                `json:"goals_against"`
	PlayerRatings map[string]float64 `json:"player_ratings,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}
