package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voiceagent-platform/internal/campaigns"
)

const selectCampaignConversationsSQL = `
SELECT c.id, c.workspace_id, c.batch_id, c.status, c.successful,
       c.duration_seconds, c.cost, c.transcript_summary, c.analysis,
       c.created_at, c.updated_at
FROM conversations c
JOIN batches b ON b.id = c.batch_id
WHERE c.workspace_id = $1
  AND b.campaign_id = $2
  AND c.created_at >= $3
  AND c.created_at < $4
ORDER BY c.created_at
`

// PostgresRepo reads conversation outcomes for reporting.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListConversations(ctx context.Context, workspaceID, campaignID string, from, to time.Time) ([]campaigns.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, selectCampaignConversationsSQL, workspaceID, campaignID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reporting: list conversations: %w", err)
	}
	defer rows.Close()

	var out []campaigns.Conversation
	for rows.Next() {
		var c campaigns.Conversation
		if err := rows.Scan(
			&c.ID, &c.WorkspaceID, &c.BatchID, &c.Status, &c.Successful,
			&c.DurationSeconds, &c.Cost, &c.TranscriptSummary, &c.Analysis,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("reporting: scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
