package domain

import "time"

// AuditEntry is an immutable record of one ticket action.
//
// (TicketID, Action, ActorID, Version) is the natural key: Version is the
// ticket version produced by the transition, so a retried append after an
// ambiguous failure de-duplicates instead of writing a second line.
type AuditEntry struct {
	ID        int64
	TicketID  string
	Action    TicketAction
	ActorID   string
	Note      *string
	Version   int64
	CreatedAt time.Time
}
