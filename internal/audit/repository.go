package audit

import (
	"context"
	"database/sql"
	"fmt"
)

const insertEventSQL = `
INSERT INTO audit_events
  (id, workspace_id, type, actor_user_id, actor_role, ip_address,
   campaign_id, batch_id, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// PostgresRepo appends audit events. There are deliberately no update
// or delete statements in this file.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID, e.WorkspaceID, e.Type, e.ActorUserID, e.ActorRole, e.IPAddress,
		e.CampaignID, e.BatchID, e.Message, e.Metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: append event: %w", err)
	}
	return nil
}
