package domain

// ownershipRequired marks the actions only the current claim holder may take.
var ownershipRequired = map[TicketAction]bool{
	ActionHandle:  true,
	ActionRelease: true,
	ActionRespond: true,
	ActionClose:   true,
}

// OwnershipRequired reports whether action is restricted to the claim owner.
func OwnershipRequired(action TicketAction) bool {
	return ownershipRequired[action]
}

// CheckPerform decides whether actorID may take action on the ticket.
//
// Ownership is checked before state legality: a wrong-owner call against a
// held ticket always yields ErrNotOwner so callers can report who holds it,
// even when the transition would be illegal anyway. Everything else off the
// transition table yields ErrIllegalTransition.
func CheckPerform(ticket *Ticket, actorID string, action TicketAction) error {
	if OwnershipRequired(action) && ticket.ClaimedBy != nil && *ticket.ClaimedBy != actorID {
		return ErrNotOwner
	}
	if !ActionAllowed(ticket.Status, action) {
		return ErrIllegalTransition
	}
	return nil
}

// CanPerform is the boolean form of CheckPerform. It is pure and derived
// only from the ticket record, so the UI may call it for button enablement
// while the coordinator re-runs the authoritative check on every action.
func CanPerform(ticket *Ticket, actorID string, action TicketAction) bool {
	return CheckPerform(ticket, actorID, action) == nil
}

// LifecycleActions lists the admin-facing actions in presentation order,
// used to build permission maps for the UI.
var LifecycleActions = []TicketAction{
	ActionClaim,
	ActionHandle,
	ActionRelease,
	ActionRespond,
	ActionClose,
	ActionReopen,
}

// Permissions evaluates CanPerform for every lifecycle action.
func Permissions(ticket *Ticket, actorID string) map[TicketAction]bool {
	perms := make(map[TicketAction]bool, len(LifecycleActions))
	for _, action := range LifecycleActions {
		perms[action] = CanPerform(ticket, actorID, action)
	}
	return perms
}
