package campaigns

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository is the persistence contract for the campaign subsystem.
//
// Every write is an idempotent upsert with an explicit conflict target:
// the polling loop, the webhook path, and the manual status-check path may
// all hit the same Batch/Conversation rows concurrently, so a blind insert
// or check-then-insert would race.
type Repository interface {
	GetCampaign(ctx context.Context, workspaceID, campaignID string) (Campaign, error)
	MarkCampaignLaunched(ctx context.Context, workspaceID, campaignID string, at time.Time) error
	SetCampaignStatus(ctx context.Context, workspaceID, campaignID string, status CampaignStatus) error

	GetBatch(ctx context.Context, workspaceID, batchID string) (Batch, error)

	// FindBatch looks a batch up by vendor id alone. Used by the webhook
	// path, where events carry no tenant identity; batch ids are vendor
	// assigned and globally unique.
	FindBatch(ctx context.Context, batchID string) (Batch, error)

	UpsertBatch(ctx context.Context, b Batch) error

	UpsertRecipient(ctx context.Context, r Recipient) error

	// EnsureConversation inserts a minimal placeholder row; an existing row
	// with the same id is left untouched (conflict does nothing).
	EnsureConversation(ctx context.Context, c Conversation) error

	// UpsertConversation writes the full row, overwriting a placeholder if
	// one was created by the polling loop.
	UpsertConversation(ctx context.Context, c Conversation) error
}

var ErrNotFound = errors.New("campaigns: not found")

// PostgresRepo implements Repository on database/sql.
//
// Assumed tables: campaigns, batches, batch_recipients, conversations.
// Assumed constraints:
//   UNIQUE (batch_id, external_id) on batch_recipients
//   PRIMARY KEY (id) on batches and conversations
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetCampaign(ctx context.Context, workspaceID, campaignID string) (Campaign, error) {
	const q = `
SELECT id, workspace_id, name, status, agent_id, phone_number_id, launched_at, created_at, updated_at
FROM campaigns
WHERE workspace_id = $1 AND id = $2
`
	var c Campaign
	if err := r.db.QueryRowContext(ctx, q, workspaceID, campaignID).Scan(
		&c.ID,
		&c.WorkspaceID,
		&c.Name,
		&c.Status,
		&c.AgentID,
		&c.PhoneNumberID,
		&c.LaunchedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	return c, nil
}

func (r *PostgresRepo) MarkCampaignLaunched(ctx context.Context, workspaceID, campaignID string, at time.Time) error {
	const q = `
UPDATE campaigns
SET status = $3, launched_at = $4, updated_at = $4
WHERE workspace_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q, workspaceID, campaignID, CampaignStatusLaunched, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SetCampaignStatus(ctx context.Context, workspaceID, campaignID string, status CampaignStatus) error {
	const q = `
UPDATE campaigns
SET status = $3, updated_at = now()
WHERE workspace_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q, workspaceID, campaignID, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetBatch(ctx context.Context, workspaceID, batchID string) (Batch, error) {
	const q = `
SELECT id, workspace_id, campaign_id, name, status, calls_dispatched, calls_scheduled, last_updated_at, created_at
FROM batches
WHERE workspace_id = $1 AND id = $2
`
	var b Batch
	if err := r.db.QueryRowContext(ctx, q, workspaceID, batchID).Scan(
		&b.ID,
		&b.WorkspaceID,
		&b.CampaignID,
		&b.Name,
		&b.Status,
		&b.CallsDispatched,
		&b.CallsScheduled,
		&b.LastUpdatedAt,
		&b.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, err
	}
	return b, nil
}

func (r *PostgresRepo) FindBatch(ctx context.Context, batchID string) (Batch, error) {
	const q = `
SELECT id, workspace_id, campaign_id, name, status, calls_dispatched, calls_scheduled, last_updated_at, created_at
FROM batches
WHERE id = $1
`
	var b Batch
	if err := r.db.QueryRowContext(ctx, q, batchID).Scan(
		&b.ID,
		&b.WorkspaceID,
		&b.CampaignID,
		&b.Name,
		&b.Status,
		&b.CallsDispatched,
		&b.CallsScheduled,
		&b.LastUpdatedAt,
		&b.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, err
	}
	return b, nil
}

func (r *PostgresRepo) UpsertBatch(ctx context.Context, b Batch) error {
	// campaign_id is written at launch time and preserved across the
	// reconciliation loop's upserts, which pass it empty.
	// The workspace guard keeps the update filtered by (batch id, workspace).
	const q = `
INSERT INTO batches (id, workspace_id, campaign_id, name, status, calls_dispatched, calls_scheduled, last_updated_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id)
DO UPDATE SET status = EXCLUDED.status,
              calls_dispatched = EXCLUDED.calls_dispatched,
              calls_scheduled = EXCLUDED.calls_scheduled,
              campaign_id = CASE WHEN EXCLUDED.campaign_id <> '' THEN EXCLUDED.campaign_id ELSE batches.campaign_id END,
              last_updated_at = EXCLUDED.last_updated_at
WHERE batches.workspace_id = EXCLUDED.workspace_id
`
	_, err := r.db.ExecContext(ctx, q,
		b.ID,
		b.WorkspaceID,
		b.CampaignID,
		b.Name,
		b.Status,
		b.CallsDispatched,
		b.CallsScheduled,
		b.LastUpdatedAt,
		b.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) UpsertRecipient(ctx context.Context, rec Recipient) error {
	// Atomic upsert on (batch_id, external_id); only mutable fields are
	// updated for an existing row.
	const q = `
INSERT INTO batch_recipients (batch_id, external_id, workspace_id, phone_number, status, conversation_id, initiation_data, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (batch_id, external_id)
DO UPDATE SET status = EXCLUDED.status,
              conversation_id = EXCLUDED.conversation_id,
              initiation_data = EXCLUDED.initiation_data,
              updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q,
		rec.BatchID,
		rec.ExternalID,
		rec.WorkspaceID,
		rec.PhoneNumber,
		rec.Status,
		rec.ConversationID,
		rec.InitiationData,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) EnsureConversation(ctx context.Context, c Conversation) error {
	const q = `
INSERT INTO conversations (id, workspace_id, batch_id, status, successful, duration_seconds, cost, transcript_summary, analysis, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.WorkspaceID,
		c.BatchID,
		c.Status,
		c.Successful,
		c.DurationSeconds,
		c.Cost,
		c.TranscriptSummary,
		c.Analysis,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) UpsertConversation(ctx context.Context, c Conversation) error {
	// batch_id is preserved if the richer payload arrives without one.
	const q = `
INSERT INTO conversations (id, workspace_id, batch_id, status, successful, duration_seconds, cost, transcript_summary, analysis, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id)
DO UPDATE SET status = EXCLUDED.status,
              successful = EXCLUDED.successful,
              duration_seconds = EXCLUDED.duration_seconds,
              cost = EXCLUDED.cost,
              transcript_summary = EXCLUDED.transcript_summary,
              analysis = EXCLUDED.analysis,
              batch_id = CASE WHEN EXCLUDED.batch_id <> '' THEN EXCLUDED.batch_id ELSE conversations.batch_id END,
              updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.WorkspaceID,
		c.BatchID,
		c.Status,
		c.Successful,
		c.DurationSeconds,
		c.Cost,
		c.TranscriptSummary,
		c.Analysis,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}
