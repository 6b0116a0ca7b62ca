package domain

import (
	"errors"
	"time"
)

// Guard failures reported by the state machine and access policy. The
// service layer translates these into API-level errors.
var (
	ErrIllegalTransition = errors.New("action not valid for current ticket status")
	ErrNotOwner          = errors.New("ticket is claimed by another admin")
)

// allowedStates lists, per action, the statuses from which that action may
// be taken. Any (status, action) pair not covered here is illegal. REOPEN is
// not a resting status; it sends CLOSED back to OPEN.
var allowedStates = map[TicketAction][]TicketStatus{
	ActionClaim:   {TicketStatusOpen},
	ActionHandle:  {TicketStatusClaimed},
	ActionRelease: {TicketStatusClaimed},
	ActionRespond: {TicketStatusClaimed, TicketStatusHandled},
	ActionClose:   {TicketStatusClaimed, TicketStatusHandled},
	ActionReopen:  {TicketStatusClosed},
}

// ActionAllowed reports whether action may be taken from the given status,
// ignoring ownership.
func ActionAllowed(status TicketStatus, action TicketAction) bool {
	for _, candidate := range allowedStates[action] {
		if candidate == status {
			return true
		}
	}
	return false
}

// Apply computes the ticket record resulting from action, performed by
// actorID at now. It returns a modified copy and never mutates the input.
// Ownership is the access policy's concern; Apply only enforces the
// transition table and returns ErrIllegalTransition for uncovered pairs.
//
// Version is left untouched: the store increments it as part of the
// conditional write.
func Apply(ticket Ticket, action TicketAction, actorID, content string, now time.Time) (Ticket, error) {
	if !ActionAllowed(ticket.Status, action) {
		return Ticket{}, ErrIllegalTransition
	}

	next := ticket
	next.Responses = append([]TicketResponse(nil), ticket.Responses...)
	next.UpdatedAt = now

	switch action {
	case ActionClaim:
		next.Status = TicketStatusClaimed
		next.ClaimedBy = &actorID
		next.ClaimedAt = &now
	case ActionHandle:
		next.Status = TicketStatusHandled
		next.HandledBy = &actorID
		next.HandledAt = &now
	case ActionRelease:
		next.Status = TicketStatusOpen
		clearOwnership(&next)
	case ActionRespond:
		next.Responses = append(next.Responses, TicketResponse{
			Author:    actorID,
			Content:   content,
			CreatedAt: now,
		})
	case ActionClose:
		next.Status = TicketStatusClosed
		next.ClosedAt = &now
		clearOwnership(&next)
	case ActionReopen:
		next.Status = TicketStatusOpen
		next.ClosedAt = nil
		clearOwnership(&next)
	default:
		return Ticket{}, ErrIllegalTransition
	}

	return next, nil
}

// clearOwnership drops the claim and handling marks so the ticket satisfies
// the unowned-state invariant (ClaimedBy nil outside CLAIMED/HANDLED).
func clearOwnership(t *Ticket) {
	t.ClaimedBy = nil
	t.ClaimedAt = nil
	t.HandledBy = nil
	t.HandledAt = nil
}
