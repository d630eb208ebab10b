package reporting

import (
	"context"
	"sync"
	"time"

	"voiceagent-platform/internal/campaigns"
)

// MemoryRepo is an in-memory Repository for tests. Batch-to-campaign
// links are seeded explicitly since only the store knows them.
type MemoryRepo struct {
	mu            sync.Mutex
	batchCampaign map[string]string // batch id -> campaign id
	conversations []campaigns.Conversation
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{batchCampaign: map[string]string{}}
}

func (r *MemoryRepo) SeedBatch(batchID, campaignID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchCampaign[batchID] = campaignID
}

func (r *MemoryRepo) AddConversation(c campaigns.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations = append(r.conversations, c)
}

func (r *MemoryRepo) ListConversations(ctx context.Context, workspaceID, campaignID string, from, to time.Time) ([]campaigns.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []campaigns.Conversation
	for _, c := range r.conversations {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if r.batchCampaign[c.BatchID] != campaignID {
			continue
		}
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
