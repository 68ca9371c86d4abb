package proposal

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/models"
)

// CreateProposalRequest carries a scored candidate into persistence.
type CreateProposalRequest struct {
	ID             uuid.UUID             `json:"id"`
	HomeTeamID     uuid.UUID             `json:"home_team_id"`
	AwayTeamID     uuid.UUID             `json:"away_team_id"`
	VenueID        uuid.UUID             `json:"venue_id"`
	VendorID       uuid.UUID             `json:"vendor_id"`
	ScheduledTime  time.Time             `json:"scheduled_time"`
	DurationMin    int                   `json:"duration_min"`
	AIScore        float64               `json:"ai_score"`
	ScoringFactors models.ScoringFactors `json:"scoring_factors"`
	ExpiresAt      time.Time             `json:"expires_at"`
}

// RespondRequest is a captain's answer to a pending proposal.
type RespondRequest struct {
	ProposalID uuid.UUID           `json:"proposal_id"`
	Side       models.ProposalSide `json:"side"`
	Accept     bool                `json:"accept"`
}

// CancelRequest cancels a pending proposal with a mandatory reason.
type CancelRequest struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	Reason     string    `json:"reason"`
}

// ListProposalsFilter narrows a vendor's proposal listing.
type ListProposalsFilter struct {
	VendorID uuid.UUID              `json:"vendor_id"`
	Status   *models.ProposalStatus `json:"status,omitempty"`
	TeamID   *uuid.UUID             `json:"team_id,omitempty"`
}
