package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo appends events to auth_audit_events.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_audit_events
			(id, type, subject, actor_role, source, ip_address, request_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, string(e.Type), e.Subject, e.ActorRole, e.Source, e.IPAddress, e.RequestID, e.Message, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert auth_audit_events: %w", err)
	}
	return nil
}
