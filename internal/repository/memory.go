package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/claim-service/internal/domain"
)

// MemoryStore is an in-memory TicketStore and AuditLog with the same
// conditional-write and idempotent-append semantics as the Postgres
// implementations. It is the reference implementation of the store contract
// and backs the workflow tests.
type MemoryStore struct {
	mu        sync.RWMutex
	tickets   map[string]domain.Ticket
	audits    []domain.AuditEntry
	auditKeys map[string]struct{}
	auditSeq  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:   make(map[string]domain.Ticket),
		auditKeys: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[ticket.ID] = copyTicket(*ticket)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket := copyTicket(stored)
	return &ticket, nil
}

// ConditionalUpdate applies the write only while holding the lock and only
// if the stored version still equals expectedVersion, so exactly one of any
// set of racing writers succeeds.
func (s *MemoryStore) ConditionalUpdate(_ context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	ticket.Version = expectedVersion + 1
	ticket.UpdatedAt = time.Now()
	s.tickets[ticket.ID] = copyTicket(*ticket)
	return nil
}

func (s *MemoryStore) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if !matchesFilter(&ticket, filter) {
			continue
		}
		result = append(result, copyTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Append records one audit line, ignoring duplicates of the natural key.
func (s *MemoryStore) Append(_ context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s|%s|%s|%d", entry.TicketID, entry.Action, entry.ActorID, entry.Version)
	if _, dup := s.auditKeys[key]; dup {
		return nil
	}
	s.auditKeys[key] = struct{}{}

	s.auditSeq++
	entry.ID = s.auditSeq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.audits = append(s.audits, *entry)
	return nil
}

func (s *MemoryStore) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AuditEntry
	for _, entry := range s.audits {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	// audits is append-only, so slice order is insertion order; a stable
	// sort by created_at preserves it for equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.ReporterID != nil && ticket.ReporterID != *filter.ReporterID {
		return false
	}
	if filter.ClaimedBy != nil && (ticket.ClaimedBy == nil || *ticket.ClaimedBy != *filter.ClaimedBy) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(ticket.Subject), term) &&
			!strings.Contains(strings.ToLower(ticket.Body), term) {
			return false
		}
	}
	return true
}

func copyTicket(t domain.Ticket) domain.Ticket {
	t.Responses = append([]domain.TicketResponse(nil), t.Responses...)
	if t.ClaimedBy != nil {
		v := *t.ClaimedBy
		t.ClaimedBy = &v
	}
	if t.ClaimedAt != nil {
		v := *t.ClaimedAt
		t.ClaimedAt = &v
	}
	if t.HandledBy != nil {
		v := *t.HandledBy
		t.HandledBy = &v
	}
	if t.HandledAt != nil {
		v := *t.HandledAt
		t.HandledAt = &v
	}
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		t.ClosedAt = &v
	}
	return t
}
