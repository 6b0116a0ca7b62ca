package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

// Store-level sentinels. Postgres and in-memory implementations report the
// same values so the service layer can translate them uniformly.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict indicates a conditional write lost an
	// optimistic-concurrency race: the stored version no longer matches
	// the expected one.
	ErrVersionConflict = errors.New("ticket version conflict")
)

// TicketFilter captures admin queue search parameters.
type TicketFilter struct {
	ReporterID  *string
	ClaimedBy   *string
	Statuses    []domain.TicketStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStore encapsulates ticket persistence.
//
// ConditionalUpdate is the sole write path for lifecycle transitions: it
// commits the new record only if the stored version still equals
// expectedVersion, incrementing the version by one, and returns
// ErrVersionConflict otherwise. This is the mechanism that resolves
// concurrent claim races; no lock is ever taken.
type TicketStore interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ConditionalUpdate(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// AuditLog stores the append-only action trail per ticket.
//
// Append is idempotent on the (ticket_id, action, actor_id, version)
// natural key so at-least-once retries never produce duplicate lines.
// ListByTicket returns entries ascending by created_at, ties broken by
// insertion order.
type AuditLog interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error)
}
