package campaigns

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and early development.
// It mirrors the store-level uniqueness guarantees:
// one Batch per id, one Recipient per (batch_id, external_id),
// one Conversation per id.
type MemoryRepo struct {
	mu sync.Mutex

	campaigns     map[string]Campaign // key: workspace|id
	batches       map[string]Batch    // key: id
	recipients    map[string]Recipient // key: batch|external
	conversations map[string]Conversation // key: id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		campaigns:     map[string]Campaign{},
		batches:       map[string]Batch{},
		recipients:    map[string]Recipient{},
		conversations: map[string]Conversation{},
	}
}

func campaignKey(workspaceID, id string) string { return workspaceID + "|" + id }
func recipientKey(batchID, externalID string) string { return batchID + "|" + externalID }

// SeedCampaign installs a campaign row for tests.
func (r *MemoryRepo) SeedCampaign(c Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[campaignKey(c.WorkspaceID, c.ID)] = c
}

func (r *MemoryRepo) GetCampaign(ctx context.Context, workspaceID, campaignID string) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignKey(workspaceID, campaignID)]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) MarkCampaignLaunched(ctx context.Context, workspaceID, campaignID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := campaignKey(workspaceID, campaignID)
	c, ok := r.campaigns[k]
	if !ok {
		return ErrNotFound
	}
	c.Status = CampaignStatusLaunched
	t := at
	c.LaunchedAt = &t
	c.UpdatedAt = at
	r.campaigns[k] = c
	return nil
}

func (r *MemoryRepo) SetCampaignStatus(ctx context.Context, workspaceID, campaignID string, status CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := campaignKey(workspaceID, campaignID)
	c, ok := r.campaigns[k]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	r.campaigns[k] = c
	return nil
}

func (r *MemoryRepo) GetBatch(ctx context.Context, workspaceID, batchID string) (Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok || b.WorkspaceID != workspaceID {
		return Batch{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) FindBatch(ctx context.Context, batchID string) (Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return Batch{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) UpsertBatch(ctx context.Context, b Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.batches[b.ID]
	if !ok {
		r.batches[b.ID] = b
		return nil
	}
	if existing.WorkspaceID != b.WorkspaceID {
		// workspace filter: the update silently matches zero rows
		return nil
	}
	existing.Status = b.Status
	existing.CallsDispatched = b.CallsDispatched
	existing.CallsScheduled = b.CallsScheduled
	existing.LastUpdatedAt = b.LastUpdatedAt
	if b.CampaignID != "" {
		existing.CampaignID = b.CampaignID
	}
	r.batches[b.ID] = existing
	return nil
}

func (r *MemoryRepo) UpsertRecipient(ctx context.Context, rec Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := recipientKey(rec.BatchID, rec.ExternalID)
	existing, ok := r.recipients[k]
	if !ok {
		r.recipients[k] = rec
		return nil
	}
	existing.Status = rec.Status
	existing.ConversationID = rec.ConversationID
	existing.InitiationData = rec.InitiationData
	existing.UpdatedAt = rec.UpdatedAt
	r.recipients[k] = existing
	return nil
}

func (r *MemoryRepo) EnsureConversation(ctx context.Context, c Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[c.ID]; ok {
		return nil
	}
	r.conversations[c.ID] = c
	return nil
}

func (r *MemoryRepo) UpsertConversation(ctx context.Context, c Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.conversations[c.ID]
	if !ok {
		r.conversations[c.ID] = c
		return nil
	}
	existing.Status = c.Status
	existing.Successful = c.Successful
	existing.DurationSeconds = c.DurationSeconds
	existing.Cost = c.Cost
	existing.TranscriptSummary = c.TranscriptSummary
	existing.Analysis = c.Analysis
	if c.BatchID != "" {
		existing.BatchID = c.BatchID
	}
	existing.UpdatedAt = c.UpdatedAt
	r.conversations[c.ID] = existing
	return nil
}

// Snapshot accessors for test assertions.

func (r *MemoryRepo) Campaign(workspaceID, id string) (Campaign, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignKey(workspaceID, id)]
	return c, ok
}

func (r *MemoryRepo) Batch(id string) (Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	return b, ok
}

func (r *MemoryRepo) RecipientRows(batchID string) []Recipient {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recipient, 0)
	for _, rec := range r.recipients {
		if rec.BatchID == batchID {
			out = append(out, rec)
		}
	}
	return out
}

func (r *MemoryRepo) Conversation(id string) (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	return c, ok
}

func (r *MemoryRepo) ConversationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

// WriteCount reports total stored rows; used to assert that rejected
// webhooks perform no writes.
func (r *MemoryRepo) WriteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches) + len(r.recipients) + len(r.conversations)
}
