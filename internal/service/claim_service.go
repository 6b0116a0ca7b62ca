package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util/errorutil"
)

// ClaimService coordinates the ticket claim-and-lifecycle workflow.
//
// It is stateless and safe for any number of concurrent callers: correctness
// rests entirely on the store's conditional write, so two admins racing to
// claim the same ticket resolve to exactly one winner and one CONFLICT. The
// loser is never retried here; whether the original intent still holds after
// someone else's write is the caller's decision.
type ClaimService struct {
	tickets    repository.TicketStore
	audit      repository.AuditLog
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ClaimDependencies bundles collaborators for the claim service.
type ClaimDependencies struct {
	TicketStore repository.TicketStore
	AuditLog    repository.AuditLog
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// ActionPayload carries action-specific input for Perform.
type ActionPayload struct {
	// Content is the reply body, required for RESPOND.
	Content string
	// Note is an optional remark recorded on the audit entry.
	Note string
}

// NewClaimService constructs the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		tickets:    deps.TicketStore,
		audit:      deps.AuditLog,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Perform executes one lifecycle action on behalf of actorID.
//
// Read, policy check, transition, conditional write, audit — in that order.
// The policy runs against the record read in this call, and the conditional
// write re-validates the whole decision: if any other writer got in between,
// the write fails with CONFLICT and nothing is mutated. Exactly one store
// write and at most one audit append happen per call.
func (s *ClaimService) Perform(ctx context.Context, ticketID, actorID string, action domain.TicketAction, payload ActionPayload) (*domain.Ticket, error) {
	content := strings.TrimSpace(payload.Content)
	if action == domain.ActionRespond && content == "" {
		return nil, apperrors.NewValidationError("response content required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketStoreError(err, ticketID)
	}

	if err := domain.CheckPerform(ticket, actorID, action); err != nil {
		if errors.Is(err, domain.ErrNotOwner) {
			return nil, apperrors.NewNotOwner(ticket.Owner())
		}
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(action))
	}

	oldStatus := ticket.Status
	next, err := domain.Apply(*ticket, action, actorID, content, time.Now())
	if err != nil {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(action))
	}

	if err := s.tickets.ConditionalUpdate(ctx, &next, ticket.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperrors.NewConflict("ticket changed since last read", map[string]any{
				"ticket_id": ticketID,
			})
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		default:
			return nil, apperrors.NewStoreUnavailable(err)
		}
	}

	s.appendAudit(ctx, &next, actorID, action, payload.Note)
	s.publishLifecycle(ctx, &next, actorID, action, oldStatus)
	return &next, nil
}

// Claim takes exclusive ownership of an OPEN ticket.
func (s *ClaimService) Claim(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Perform(ctx, ticketID, actorID, domain.ActionClaim, ActionPayload{})
}

// Release gives up a claim, returning the ticket to OPEN.
func (s *ClaimService) Release(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Perform(ctx, ticketID, actorID, domain.ActionRelease, ActionPayload{})
}

// Handle marks a claimed ticket as being worked.
func (s *ClaimService) Handle(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Perform(ctx, ticketID, actorID, domain.ActionHandle, ActionPayload{})
}

// Respond appends a reply by the claim owner.
func (s *ClaimService) Respond(ctx context.Context, ticketID, actorID, content string) (*domain.Ticket, error) {
	return s.Perform(ctx, ticketID, actorID, domain.ActionRespond, ActionPayload{Content: content})
}

// Close finishes a claimed or handled ticket.
func (s *ClaimService) Close(ctx context.Context, ticketID, actorID, note string) (*domain.Ticket, error) {
	return s.Perform(ctx, ticketID, actorID, domain.ActionClose, ActionPayload{Note: note})
}

// Reopen sends a closed ticket back to the open queue with no owner.
func (s *ClaimService) Reopen(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.Perform(ctx, ticketID, actorID, domain.ActionReopen, ActionPayload{})
}

// GetTicket fetches one ticket for the admin detail view.
func (s *ClaimService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketStoreError(err, ticketID)
	}
	return ticket, nil
}

// ListQueue returns tickets matching the admin queue filter.
func (s *ClaimService) ListQueue(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

// AuditTrail returns the ordered action log for one ticket.
func (s *ClaimService) AuditTrail(ctx context.Context, ticketID string) ([]domain.AuditEntry, error) {
	entries, err := s.audit.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return entries, nil
}

// Permissions reports which lifecycle actions actorID may take on the
// ticket right now. Advisory only: the UI uses it for button enablement,
// and Perform re-checks against fresh state.
func (s *ClaimService) Permissions(ctx context.Context, ticketID, actorID string) (map[domain.TicketAction]bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketStoreError(err, ticketID)
	}
	return domain.Permissions(ticket, actorID), nil
}

// appendAudit records the transition. Audit is observability, not part of
// the consistency invariant: the ticket write already stands, so an append
// failure is logged and the call still succeeds.
func (s *ClaimService) appendAudit(ctx context.Context, ticket *domain.Ticket, actorID string, action domain.TicketAction, note string) {
	entry := &domain.AuditEntry{
		TicketID: ticket.ID,
		Action:   action,
		ActorID:  actorID,
		Version:  ticket.Version,
	}
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		entry.Note = &trimmed
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("action", string(action)),
			zap.String("actor_id", actorID),
			zap.Int64("ticket_version", ticket.Version),
			zap.Error(err))
	}
}

func (s *ClaimService) publishLifecycle(ctx context.Context, ticket *domain.Ticket, actorID string, action domain.TicketAction, oldStatus domain.TicketStatus) {
	if s.dispatcher == nil {
		return
	}
	eventType, ok := events.ForAction(action)
	if !ok {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeAdmin, AdminID: &actorID},
		Timestamp: time.Now(),
		Payload: events.TicketLifecyclePayload{
			Action:    action,
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			ClaimedBy: ticket.ClaimedBy,
			Version:   ticket.Version,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapTicketStoreError(err error, ticketID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.NewStoreUnavailable(err)
}
