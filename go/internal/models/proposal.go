package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus defines the lifecycle state of a match proposal.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "PENDING"
	ProposalStatusScheduled ProposalStatus = "SCHEDULED"
	ProposalStatusCancelled ProposalStatus = "CANCELLED"
	ProposalStatusExpired   ProposalStatus = "EXPIRED"
)

// ProposalSide identifies which side of a proposal an actor speaks for.
type ProposalSide string

const (
	ProposalSideHome ProposalSide = "HOME"
	ProposalSideAway ProposalSide = "AWAY"
)

// ScoringFactors is the fixed set of normalized sub-scores behind a
// proposal's composite score. Each factor is in [0, 1]. The set is a struct
// rather than a map so the factor list and the weight set cannot drift
// apart silently.
type ScoringFactors struct {
	TimeSlotCompatibility float64 `json:"time_slot_compatibility"`
	VenuePreference       float64 `json:"venue_preference"`
	TeamAvailability      float64 `json:"team_availability"`
	TravelDistance        float64 `json:"travel_distance"`
	VenueAvailability     float64 `json:"venue_availability"`
	SkillLevelMatch       float64 `json:"skill_level_match"`
}

// MatchProposal is a not-yet-confirmed fixture awaiting both captains'
// acceptance. Once SCHEDULED, CANCELLED or EXPIRED it is immutable and kept
// indefinitely for audit.
type MatchProposal struct {
	ID                 uuid.UUID      `json:"id"`
	HomeTeamID         uuid.UUID      `json:"home_team_id"`
	AwayTeamID         uuid.UUID      `json:"away_team_id"`
	VenueID            uuid.UUID      `json:"venue_id"`
	VendorID           uuid.UUID      `json:"vendor_id"`
	ScheduledTime      time.Time      `json:"scheduled_time"`
	DurationMin        int            `json:"duration_min"`
	AIScore            float64        `json:"ai_score"` // 0.0 - 1.0
	ScoringFactors     ScoringFactors `json:"scoring_factors"`
	Status             ProposalStatus `json:"status"`
	HomeTeamAccepted   *bool          `json:"home_team_accepted,omitempty"`
	HomeRespondedAt    *time.Time     `json:"home_responded_at,omitempty"`
	AwayTeamAccepted   *bool          `json:"away_team_accepted,omitempty"`
	AwayRespondedAt    *time.Time     `json:"away_responded_at,omitempty"`
	AcceptedAt         *time.Time     `json:"accepted_at,omitempty"`
	ExpiresAt          time.Time      `json:"expires_at"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Terminal reports whether the proposal can no longer transition.
func (p *MatchProposal) Terminal() bool {
	return p.Status != ProposalStatusPending
}

// FixtureStatus defines the state of a confirmed fixture.
type FixtureStatus string

const (
	FixtureStatusConfirmed FixtureStatus = "CONFIRMED"
	FixtureStatusPlayed    FixtureStatus = "PLAYED"
	FixtureStatusCancelled FixtureStatus = "CANCELLED"
)

// Fixture is a confirmed match between two teams at a venue and time,
// promoted from a fully accepted proposal.
type Fixture struct {
	ID            uuid.UUID     `json:"id"`
	ProposalID    uuid.UUID     `json:"proposal_id"`
	HomeTeamID    uuid.UUID     `json:"home_team_id"`
	AwayTeamID    uuid.UUID     `json:"away_team_id"`
	VenueID       uuid.UUID     `json:"venue_id"`
	ScheduledTime time.Time     `json:"scheduled_time"`
	DurationMin   int           `json:"duration_min"`
	Status        FixtureStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
