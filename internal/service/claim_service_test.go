package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util/errorutil"
)

func newClaimFixture(t *testing.T) (*ClaimService, *repository.MemoryStore, *domain.Ticket) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewClaimService(ClaimDependencies{
		TicketStore: store,
		AuditLog:    store,
	})
	ticket := &domain.Ticket{
		ExternalKey: "TCK-claimtest",
		ReporterID:  "user-1",
		Subject:     "laptop will not boot",
		Body:        "black screen after update",
		Status:      domain.TicketStatusOpen,
	}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return svc, store, ticket
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want code %s", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("error = %v (%T), want DomainError with code %s", err, err, code)
	}
	if domainErr.Code != code {
		t.Fatalf("code = %s, want %s", domainErr.Code, code)
	}
}

func TestClaimHappyPath(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)

	got, err := svc.Claim(context.Background(), ticket.ID, "admin-1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if got.Status != domain.TicketStatusClaimed {
		t.Errorf("status = %s, want CLAIMED", got.Status)
	}
	if got.Owner() != "admin-1" {
		t.Errorf("owner = %q, want admin-1", got.Owner())
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	svc, store, ticket := newClaimFixture(t)
	ctx := context.Background()

	const admins = 10
	var wg sync.WaitGroup
	errs := make([]error, admins)
	winners := make([]string, admins)
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := string(rune('a'+i)) + "-admin"
			winners[i] = actor
			_, errs[i] = svc.Claim(ctx, ticket.ID, actor)
		}(i)
	}
	wg.Wait()

	var winner string
	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
			winner = winners[i]
			continue
		}
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) {
			t.Fatalf("loser error = %v (%T)", err, err)
		}
		// A loser either lost the write race (CONFLICT) or read the
		// winner's record first (ILLEGAL_TRANSITION on CLAIMED). Never a
		// second success.
		if domainErr.Code != apperrors.CodeConflict && domainErr.Code != apperrors.CodeIllegalTransition {
			t.Errorf("loser code = %s, want CONFLICT or ILLEGAL_TRANSITION", domainErr.Code)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}

	stored, err := store.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Owner() != winner {
		t.Errorf("stored owner = %q, want %q", stored.Owner(), winner)
	}
	if stored.Version != 2 {
		t.Errorf("version = %d, want 2 after one successful write", stored.Version)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	tests := []struct {
		name string
		call func() (*domain.Ticket, error)
	}{
		{"handle", func() (*domain.Ticket, error) { return svc.Handle(ctx, ticket.ID, "admin-2") }},
		{"release", func() (*domain.Ticket, error) { return svc.Release(ctx, ticket.ID, "admin-2") }},
		{"respond", func() (*domain.Ticket, error) { return svc.Respond(ctx, ticket.ID, "admin-2", "hi") }},
		{"close", func() (*domain.Ticket, error) { return svc.Close(ctx, ticket.ID, "admin-2", "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			assertCode(t, err, apperrors.CodeNotOwner)
			var domainErr *apperrors.DomainError
			errors.As(err, &domainErr)
			if domainErr.Details["claimed_by"] != "admin-1" {
				t.Errorf("claimed_by detail = %v, want admin-1", domainErr.Details["claimed_by"])
			}
		})
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	// HANDLE before anyone claims: no owner, so state legality decides.
	_, err := svc.Handle(ctx, ticket.ID, "admin-1")
	assertCode(t, err, apperrors.CodeIllegalTransition)

	// REOPEN on an open ticket.
	_, err = svc.Reopen(ctx, ticket.ID, "admin-1")
	assertCode(t, err, apperrors.CodeIllegalTransition)

	// Double claim by the same admin: CLAIM is not ownership-gated, so the
	// second attempt fails on the transition table.
	if _, err := svc.Claim(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	_, err = svc.Claim(ctx, ticket.ID, "admin-1")
	assertCode(t, err, apperrors.CodeIllegalTransition)
}

func TestVersionIncrementsByOnePerWrite(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	steps := []func() (*domain.Ticket, error){
		func() (*domain.Ticket, error) { return svc.Claim(ctx, ticket.ID, "admin-1") },
		func() (*domain.Ticket, error) { return svc.Handle(ctx, ticket.ID, "admin-1") },
		func() (*domain.Ticket, error) { return svc.Respond(ctx, ticket.ID, "admin-1", "swapped the SSD") },
		func() (*domain.Ticket, error) { return svc.Close(ctx, ticket.ID, "admin-1", "fixed") },
		func() (*domain.Ticket, error) { return svc.Reopen(ctx, ticket.ID, "admin-2") },
	}
	want := ticket.Version
	for i, step := range steps {
		got, err := step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		want++
		if got.Version != want {
			t.Fatalf("step %d: version = %d, want %d", i, got.Version, want)
		}
	}
}

func TestAuditTrailRecordsEveryTransition(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := svc.Handle(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if _, err := svc.Respond(ctx, ticket.ID, "admin-1", "done"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := svc.Close(ctx, ticket.ID, "admin-1", "resolved remotely"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := svc.AuditTrail(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	wantActions := []domain.TicketAction{
		domain.ActionClaim, domain.ActionHandle, domain.ActionRespond, domain.ActionClose,
	}
	if len(entries) != len(wantActions) {
		t.Fatalf("entries = %d, want %d", len(entries), len(wantActions))
	}
	for i, entry := range entries {
		if entry.Action != wantActions[i] {
			t.Errorf("entries[%d].Action = %s, want %s", i, entry.Action, wantActions[i])
		}
		if entry.ActorID != "admin-1" {
			t.Errorf("entries[%d].ActorID = %s, want admin-1", i, entry.ActorID)
		}
		if want := int64(i + 2); entry.Version != want {
			t.Errorf("entries[%d].Version = %d, want %d", i, entry.Version, want)
		}
	}
	if entries[3].Note == nil || *entries[3].Note != "resolved remotely" {
		t.Errorf("close note = %v, want 'resolved remotely'", entries[3].Note)
	}
}

func TestReopenedTicketClaimableByAnyone(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := svc.Close(ctx, ticket.ID, "admin-1", ""); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := svc.Reopen(ctx, ticket.ID, "admin-2")
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen || reopened.ClaimedBy != nil {
		t.Fatalf("reopened = {%s, owner %v}, want unowned OPEN", reopened.Status, reopened.ClaimedBy)
	}

	claimed, err := svc.Claim(ctx, ticket.ID, "admin-3")
	if err != nil {
		t.Fatalf("Claim after reopen: %v", err)
	}
	if claimed.Owner() != "admin-3" {
		t.Errorf("owner = %q, want admin-3", claimed.Owner())
	}
}

func TestRespondRequiresContent(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	_, err := svc.Respond(ctx, ticket.ID, "admin-1", "   ")
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestPerformUnknownTicket(t *testing.T) {
	svc, _, _ := newClaimFixture(t)
	_, err := svc.Claim(context.Background(), "no-such-id", "admin-1")
	assertCode(t, err, apperrors.CodeNotFound)
}

// failingAuditLog simulates an audit store outage.
type failingAuditLog struct{}

func (failingAuditLog) Append(context.Context, *domain.AuditEntry) error {
	return errors.New("audit store down")
}

func (failingAuditLog) ListByTicket(context.Context, string) ([]domain.AuditEntry, error) {
	return nil, errors.New("audit store down")
}

func TestAuditFailureDoesNotFailAction(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewClaimService(ClaimDependencies{
		TicketStore: store,
		AuditLog:    failingAuditLog{},
	})
	ticket := &domain.Ticket{
		ReporterID: "user-1",
		Subject:    "s",
		Body:       "b",
		Status:     domain.TicketStatusOpen,
	}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.Claim(context.Background(), ticket.ID, "admin-1")
	if err != nil {
		t.Fatalf("Claim with failing audit log: %v", err)
	}
	if got.Status != domain.TicketStatusClaimed {
		t.Errorf("status = %s, want CLAIMED", got.Status)
	}
}

func TestPermissionsReflectOwnership(t *testing.T) {
	svc, _, ticket := newClaimFixture(t)
	ctx := context.Background()

	perms, err := svc.Permissions(ctx, ticket.ID, "admin-1")
	if err != nil {
		t.Fatalf("Permissions: %v", err)
	}
	if !perms[domain.ActionClaim] || perms[domain.ActionClose] {
		t.Errorf("open ticket perms = %v, want only CLAIM", perms)
	}

	if _, err := svc.Claim(ctx, ticket.ID, "admin-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	ownerPerms, err := svc.Permissions(ctx, ticket.ID, "admin-1")
	if err != nil {
		t.Fatalf("Permissions: %v", err)
	}
	if !ownerPerms[domain.ActionHandle] || !ownerPerms[domain.ActionClose] {
		t.Errorf("owner perms = %v, want HANDLE and CLOSE allowed", ownerPerms)
	}

	otherPerms, err := svc.Permissions(ctx, ticket.ID, "admin-2")
	if err != nil {
		t.Fatalf("Permissions: %v", err)
	}
	for action, allowed := range otherPerms {
		if allowed {
			t.Errorf("non-owner may %s on a held ticket", action)
		}
	}
}
