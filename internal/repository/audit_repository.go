package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claim-service/internal/domain"
)

type auditLog struct {
	pool *pgxpool.Pool
}

// NewAuditLog returns a Postgres-backed AuditLog.
func NewAuditLog(pool *pgxpool.Pool) AuditLog {
	return &auditLog{pool: pool}
}

// Append inserts one audit line. The unique index on
// (ticket_id, action, actor_id, version) absorbs retried appends: a
// conflicting insert returns no row and is treated as already written.
func (r *auditLog) Append(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO ticket_audit (ticket_id, action, actor_id, note, ticket_version)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (ticket_id, action, actor_id, ticket_version) DO NOTHING
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.Action,
		entry.ActorID,
		entry.Note,
		entry.Version,
	).Scan(&entry.ID, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (r *auditLog) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, ticket_id, action, actor_id, note, ticket_version, created_at
        FROM ticket_audit WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Action,
			&entry.ActorID,
			&entry.Note,
			&entry.Version,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
