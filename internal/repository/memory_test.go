package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

func newTicket(t *testing.T, store *MemoryStore) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ExternalKey: "TCK-test",
		ReporterID:  "user-1",
		Subject:     "vpn down",
		Body:        "cannot connect since this morning",
		Status:      domain.TicketStatusOpen,
	}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestMemoryCreateAssignsVersionOne(t *testing.T) {
	store := NewMemoryStore()
	ticket := newTicket(t, store)

	if ticket.ID == "" {
		t.Error("Create must assign an ID")
	}
	if ticket.Version != 1 {
		t.Errorf("version = %d, want 1", ticket.Version)
	}
}

func TestMemoryGetByIDNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID = %v, want ErrNotFound", err)
	}
}

func TestMemoryConditionalUpdateIncrementsVersion(t *testing.T) {
	store := NewMemoryStore()
	ticket := newTicket(t, store)

	owner := "admin-1"
	ticket.Status = domain.TicketStatusClaimed
	ticket.ClaimedBy = &owner

	if err := store.ConditionalUpdate(context.Background(), ticket, 1); err != nil {
		t.Fatalf("ConditionalUpdate: %v", err)
	}
	if ticket.Version != 2 {
		t.Errorf("version = %d, want 2", ticket.Version)
	}

	stored, err := store.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Version != 2 || stored.Status != domain.TicketStatusClaimed {
		t.Errorf("stored = {version %d, status %s}, want {2, CLAIMED}", stored.Version, stored.Status)
	}
}

func TestMemoryConditionalUpdateStaleVersion(t *testing.T) {
	store := NewMemoryStore()
	ticket := newTicket(t, store)

	first := *ticket
	if err := store.ConditionalUpdate(context.Background(), &first, 1); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale := *ticket
	if err := store.ConditionalUpdate(context.Background(), &stale, 1); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale update = %v, want ErrVersionConflict", err)
	}
}

func TestMemoryConditionalUpdateMissingTicket(t *testing.T) {
	store := NewMemoryStore()
	ghost := &domain.Ticket{ID: "nope", Status: domain.TicketStatusOpen}
	if err := store.ConditionalUpdate(context.Background(), ghost, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("ConditionalUpdate = %v, want ErrNotFound", err)
	}
}

func TestMemoryConditionalUpdateConcurrentSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	ticket := newTicket(t, store)

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt := *ticket
			attempt.Status = domain.TicketStatusClaimed
			errs[i] = store.ConditionalUpdate(context.Background(), &attempt, 1)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrVersionConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}

	stored, err := store.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("version = %d, want 2 after a single successful write", stored.Version)
	}
}

func TestMemoryGetReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ticket := newTicket(t, store)

	got, err := store.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Subject = "mutated"
	owner := "intruder"
	got.ClaimedBy = &owner

	again, err := store.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.Subject != "vpn down" || again.ClaimedBy != nil {
		t.Error("mutating a returned ticket leaked into the store")
	}
}

func TestMemoryAuditAppendDedupes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	entry := domain.AuditEntry{TicketID: "t-1", Action: domain.ActionClaim, ActorID: "admin-1", Version: 2}
	if err := store.Append(ctx, &entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	retry := domain.AuditEntry{TicketID: "t-1", Action: domain.ActionClaim, ActorID: "admin-1", Version: 2}
	if err := store.Append(ctx, &retry); err != nil {
		t.Fatalf("retried Append: %v", err)
	}

	entries, err := store.ListByTicket(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListByTicket: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1 after duplicate append", len(entries))
	}
}

func TestMemoryAuditDistinctVersionsKept(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for version := int64(2); version <= 4; version++ {
		entry := domain.AuditEntry{TicketID: "t-1", Action: domain.ActionRespond, ActorID: "admin-1", Version: version}
		if err := store.Append(ctx, &entry); err != nil {
			t.Fatalf("Append v%d: %v", version, err)
		}
	}

	entries, err := store.ListByTicket(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListByTicket: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		if want := int64(i + 2); entry.Version != want {
			t.Errorf("entries[%d].Version = %d, want %d", i, entry.Version, want)
		}
	}
}

func TestMemoryAuditOrderIsInsertion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	actions := []domain.TicketAction{domain.ActionCreate, domain.ActionClaim, domain.ActionHandle, domain.ActionClose}
	for i, action := range actions {
		entry := domain.AuditEntry{
			TicketID:  "t-1",
			Action:    action,
			ActorID:   "admin-1",
			Version:   int64(i + 1),
			CreatedAt: now, // identical timestamps; order must still hold
		}
		if err := store.Append(ctx, &entry); err != nil {
			t.Fatalf("Append %s: %v", action, err)
		}
	}

	entries, err := store.ListByTicket(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListByTicket: %v", err)
	}
	for i, action := range actions {
		if entries[i].Action != action {
			t.Errorf("entries[%d].Action = %s, want %s", i, entries[i].Action, action)
		}
	}
}

func TestMemoryListWithFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	open := &domain.Ticket{ReporterID: "user-1", Subject: "vpn down", Body: "details", Status: domain.TicketStatusOpen}
	claimed := &domain.Ticket{ReporterID: "user-2", Subject: "printer jam", Body: "details", Status: domain.TicketStatusOpen}
	for _, ticket := range []*domain.Ticket{open, claimed} {
		if err := store.Create(ctx, ticket); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	owner := "admin-1"
	claimed.Status = domain.TicketStatusClaimed
	claimed.ClaimedBy = &owner
	if err := store.ConditionalUpdate(ctx, claimed, 1); err != nil {
		t.Fatalf("ConditionalUpdate: %v", err)
	}

	tests := []struct {
		name   string
		filter TicketFilter
		want   []string
	}{
		{"by status", TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusOpen}}, []string{open.ID}},
		{"by claimer", TicketFilter{ClaimedBy: &owner}, []string{claimed.ID}},
		{"by reporter", TicketFilter{ReporterID: strPtr("user-1")}, []string{open.ID}},
		{"by search", TicketFilter{SearchTerm: strPtr("PRINTER")}, []string{claimed.ID}},
		{"no match", TicketFilter{SearchTerm: strPtr("nonexistent")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListWithFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListWithFilter: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("results = %d, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("results[%d].ID = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func strPtr(s string) *string { return &s }
