package availability

import (
	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/models"
)

// CreateSlotRequest represents a request to create an availability slot
type CreateSlotRequest struct {
	ID                uuid.UUID        `json:"id"`
	TeamID            uuid.UUID        `json:"team_id"`
	RelationshipID    uuid.UUID        `json:"relationship_id"`
	DayOfWeek         models.Weekday   `json:"day_of_week"`
	StartTime         models.TimeOfDay `json:"start_time"`
	EndTime           models.TimeOfDay `json:"end_time"`
	MaxMatchesPerWeek int              `json:"max_matches_per_week"`
	CourtType         *string          `json:"court_type,omitempty"`
}

// VenueSlot pairs a slot with the venue its relationship points at, as
// consumed by candidate generation.
type VenueSlot struct {
	Slot    models.AvailabilitySlot      `json:"slot"`
	VenueID uuid.UUID                    `json:"venue_id"`
	Rel     models.TeamVenueRelationship `json:"relationship"`
}
