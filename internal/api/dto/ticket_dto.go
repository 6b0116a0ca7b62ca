package dto

import (
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RespondRequest payload for the claim owner's reply.
type RespondRequest struct {
	Content string `json:"content"`
}

// CloseRequest payload.
type CloseRequest struct {
	Note string `json:"note"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string              `json:"id"`
	ExternalKey string              `json:"external_key"`
	Subject     string              `json:"subject"`
	Status      domain.TicketStatus `json:"status"`
	ClaimedBy   *string             `json:"claimed_by,omitempty"`
	Version     int64               `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID          string               `json:"id"`
	ExternalKey string               `json:"external_key"`
	ReporterID  string               `json:"reporter_id"`
	Subject     string               `json:"subject"`
	Body        string               `json:"body"`
	Status      domain.TicketStatus  `json:"status"`
	ClaimedBy   *string              `json:"claimed_by,omitempty"`
	ClaimedAt   *time.Time           `json:"claimed_at,omitempty"`
	HandledBy   *string              `json:"handled_by,omitempty"`
	HandledAt   *time.Time           `json:"handled_at,omitempty"`
	Responses   []TicketResponseItem `json:"responses"`
	Version     int64                `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	ClosedAt    *time.Time           `json:"closed_at,omitempty"`
	Audit       []AuditEntryResponse `json:"audit,omitempty"`
}

// TicketResponseItem is one reply in the ticket thread.
type TicketResponseItem struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntryResponse is one line of the ticket action trail.
type AuditEntryResponse struct {
	ID        int64               `json:"id"`
	Action    domain.TicketAction `json:"action"`
	ActorID   string              `json:"actor_id"`
	Note      *string             `json:"note,omitempty"`
	Version   int64               `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
}
