package reporting

import (
	"context"
	"errors"
	"time"

	"voiceagent-platform/internal/campaigns"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce workspace filtering.
// - Reporting reads only; conversation rows are owned by the
//   reconciliation paths and never written from here.
type Repository interface {
	ListConversations(ctx context.Context, workspaceID, campaignID string, from, to time.Time) ([]campaigns.Conversation, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CampaignSummary(ctx context.Context, req CampaignSummaryRequest) (CampaignSummary, error) {
	if req.WorkspaceID == "" || req.CampaignID == "" {
		return CampaignSummary{}, ErrInvalidRequest
	}
	if !req.Range.IsZero() {
		if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
			return CampaignSummary{}, ErrInvalidRequest
		}
	}
	if s.repo == nil {
		return CampaignSummary{}, errors.New("reporting: repository not configured")
	}

	from, to := req.Range.From, req.Range.To
	if req.Range.IsZero() {
		// Whole lifetime; bounds wide enough for any stored row.
		from = time.Unix(0, 0).UTC()
		to = time.Now().UTC().Add(24 * time.Hour)
	}

	rows, err := s.repo.ListConversations(ctx, req.WorkspaceID, req.CampaignID, from, to)
	if err != nil {
		return CampaignSummary{}, err
	}

	out := CampaignSummary{
		WorkspaceID:    req.WorkspaceID,
		CampaignID:     req.CampaignID,
		CountsByStatus: map[string]int{},
	}
	for _, c := range rows {
		out.TotalConversations++
		out.TotalDurationSeconds += c.DurationSeconds
		out.TotalCost += c.Cost
		out.CountsByStatus[c.Status]++
		if c.Successful {
			out.SuccessfulCalls++
		} else {
			out.FailedCalls++
		}
	}
	if out.TotalConversations > 0 {
		out.SuccessRate = float64(out.SuccessfulCalls) / float64(out.TotalConversations)
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalConversations
	}
	return out, nil
}
