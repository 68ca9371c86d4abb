package gateway

import (
	"encoding/json"
	"time"
)

// MatchEvent is the envelope pushed to WebSocket clients. Data carries the
// proposal or fixture snapshot as published by the outbox.
type MatchEvent struct {
	ID         string          `json:"id"`
	ProposalID string          `json:"proposal_id"`
	Type       string          `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

// eventTeams is the slice of the payload the gateway needs for routing.
type eventTeams struct {
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
}
