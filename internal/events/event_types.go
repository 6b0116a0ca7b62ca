package events

import (
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketClaimed   EventType = "ticket_claimed"
	EventTicketReleased  EventType = "ticket_released"
	EventTicketHandled   EventType = "ticket_handled"
	EventTicketResponded EventType = "ticket_responded"
	EventTicketClosed    EventType = "ticket_closed"
	EventTicketReopened  EventType = "ticket_reopened"
)

// ForAction maps a lifecycle action to its event type.
func ForAction(action domain.TicketAction) (EventType, bool) {
	switch action {
	case domain.ActionCreate:
		return EventTicketCreated, true
	case domain.ActionClaim:
		return EventTicketClaimed, true
	case domain.ActionRelease:
		return EventTicketReleased, true
	case domain.ActionHandle:
		return EventTicketHandled, true
	case domain.ActionRespond:
		return EventTicketResponded, true
	case domain.ActionClose:
		return EventTicketClosed, true
	case domain.ActionReopen:
		return EventTicketReopened, true
	default:
		return "", false
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	AdminID *string            `json:"admin_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReporterID string `json:"reporter_id"`
	Subject    string `json:"subject"`
}

// TicketLifecyclePayload describes one claim-workflow transition.
type TicketLifecyclePayload struct {
	Action    domain.TicketAction `json:"action"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ClaimedBy *string             `json:"claimed_by,omitempty"`
	Version   int64               `json:"version"`
}
