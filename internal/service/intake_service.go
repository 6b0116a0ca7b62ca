package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util/errorutil"
)

// IntakeService handles reporter-facing ticket submission and viewing.
// Tickets enter the workflow here in OPEN, version 1; all later mutation
// goes through ClaimService.
type IntakeService struct {
	tickets    repository.TicketStore
	audit      repository.AuditLog
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	TicketStore repository.TicketStore
	AuditLog    repository.AuditLog
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket submission payload.
type TicketCreateInput struct {
	Subject string
	Body    string
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		tickets:    deps.TicketStore,
		audit:      deps.AuditLog,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket files a new support request for a reporter.
func (s *IntakeService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, apperrors.NewValidationError("subject and body required", nil)
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		ReporterID:  userID,
		Subject:     subject,
		Body:        body,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	entry := &domain.AuditEntry{
		TicketID: ticket.ID,
		Action:   domain.ActionCreate,
		ActorID:  userID,
		Version:  ticket.Version,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("action", string(domain.ActionCreate)),
			zap.Error(err))
	}

	s.publishCreated(ctx, ticket, userID)
	return ticket, nil
}

// ListUserTickets returns tickets filed by the reporter.
func (s *IntakeService) ListUserTickets(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		ReporterID: &userID,
		Limit:      limit,
		Offset:     offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

// GetTicketForUser fetches a ticket ensuring the reporter owns it.
func (s *IntakeService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketStoreError(err, ticketID)
	}
	if ticket.ReporterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *IntakeService) publishCreated(ctx context.Context, ticket *domain.Ticket, userID string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeUser, UserID: &userID},
		Timestamp: time.Now(),
		Payload: events.TicketCreatedPayload{
			ReporterID: ticket.ReporterID,
			Subject:    ticket.Subject,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
