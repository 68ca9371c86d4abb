package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scheduling engine. The subject suffix on the
// event stream is the event type verbatim.
const (
	EventProposalCreated   = "proposal.created"
	EventProposalResponded = "proposal.responded"
	EventProposalScheduled = "proposal.scheduled"
	EventProposalCancelled = "proposal.cancelled"
	EventProposalExpired   = "proposal.expired"
	EventFixturePlayed     = "fixture.played"
)

// Event is a domain event staged in the same transaction as the state change
// it describes, and published asynchronously by the Worker.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
}

// NewEvent stages an event for the given aggregate with an already-marshaled
// payload.
func NewEvent(aggregateID uuid.UUID, eventType string, payload json.RawMessage) Event {
	return Event{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
	}
}
