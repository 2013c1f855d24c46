package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	ActorID *uuid.UUID      `json:"actorId,omitempty"`
	Role    enums.ActorRole `json:"role"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events
// and published to the domain topic verbatim.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
