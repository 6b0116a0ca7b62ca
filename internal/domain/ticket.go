package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusClaimed TicketStatus = "CLAIMED"
	TicketStatusHandled TicketStatus = "HANDLED"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// TicketAction enumerates operations that advance a ticket.
type TicketAction string

const (
	ActionCreate  TicketAction = "CREATE"
	ActionClaim   TicketAction = "CLAIM"
	ActionRelease TicketAction = "RELEASE"
	ActionHandle  TicketAction = "HANDLE"
	ActionRespond TicketAction = "RESPOND"
	ActionClose   TicketAction = "CLOSE"
	ActionReopen  TicketAction = "REOPEN"
)

// TicketResponse is a reply written by the claim owner while working a ticket.
type TicketResponse struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is the aggregate for support requests.
//
// Version is the optimistic-concurrency token: every successful write
// increments it by exactly one, and every lifecycle write is conditioned on
// the version observed at read time. ClaimedBy is non-nil exactly while the
// ticket is in an owned state (CLAIMED or HANDLED).
type Ticket struct {
	ID          string
	ExternalKey string
	ReporterID  string
	Subject     string
	Body        string
	Status      TicketStatus
	ClaimedBy   *string
	ClaimedAt   *time.Time
	HandledBy   *string
	HandledAt   *time.Time
	Responses   []TicketResponse
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// Owned reports whether the ticket is currently held by an admin.
func (t *Ticket) Owned() bool {
	return t.Status == TicketStatusClaimed || t.Status == TicketStatusHandled
}

// Owner returns the current claim holder, or empty string when unowned.
func (t *Ticket) Owner() string {
	if t.ClaimedBy == nil {
		return ""
	}
	return *t.ClaimedBy
}
