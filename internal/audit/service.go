package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	// Rejected webhooks are the only events allowed without a workspace:
	// the signature failed before any tenant could be resolved.
	if e.WorkspaceID == "" && e.Type != EventTypeWebhookRejected {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogCampaignLaunch records a batch launch against a campaign.
func (s *Service) LogCampaignLaunch(ctx context.Context, workspaceID, actorUserID, actorRole, campaignID, batchID string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeCampaignLaunch,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		CampaignID:  campaignID,
		BatchID:     batchID,
		Message:     "batch launched",
	})
}

// LogManualStatusCheck records an on-demand vendor status check.
func (s *Service) LogManualStatusCheck(ctx context.Context, workspaceID, actorUserID, batchID string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeManualStatusCheck,
		ActorUserID: actorUserID,
		BatchID:     batchID,
		Message:     "manual status check",
	})
}

// LogWebhookRejected records a webhook delivery that failed signature
// verification.
func (s *Service) LogWebhookRejected(ctx context.Context, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeWebhookRejected,
		IPAddress: ip,
		Message:   "webhook signature mismatch",
	})
}
