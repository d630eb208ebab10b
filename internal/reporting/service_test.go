package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"voiceagent-platform/internal/campaigns"
)

func seedSummaryData(repo *MemoryRepo) {
	repo.SeedBatch("batch-1", "camp-1")
	repo.SeedBatch("batch-other", "camp-other")

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.AddConversation(campaigns.Conversation{
		ID: "conv-1", WorkspaceID: "ws-1", BatchID: "batch-1",
		Status: "done", Successful: true, DurationSeconds: 60, Cost: 10,
		CreatedAt: base,
	})
	repo.AddConversation(campaigns.Conversation{
		ID: "conv-2", WorkspaceID: "ws-1", BatchID: "batch-1",
		Status: "done", Successful: true, DurationSeconds: 120, Cost: 20,
		CreatedAt: base.Add(time.Minute),
	})
	repo.AddConversation(campaigns.Conversation{
		ID: "conv-3", WorkspaceID: "ws-1", BatchID: "batch-1",
		Status: "failed", Successful: false, DurationSeconds: 0, Cost: 0,
		CreatedAt: base.Add(2 * time.Minute),
	})
	// Different campaign, must not leak into the summary.
	repo.AddConversation(campaigns.Conversation{
		ID: "conv-4", WorkspaceID: "ws-1", BatchID: "batch-other",
		Status: "done", Successful: true, DurationSeconds: 600, Cost: 99,
		CreatedAt: base,
	})
	// Different workspace, same batch id shape.
	repo.AddConversation(campaigns.Conversation{
		ID: "conv-5", WorkspaceID: "ws-2", BatchID: "batch-1",
		Status: "done", Successful: true, DurationSeconds: 600, Cost: 99,
		CreatedAt: base,
	})
}

func TestCampaignSummary_Aggregates(t *testing.T) {
	repo := NewMemoryRepo()
	seedSummaryData(repo)
	svc := NewService(repo)

	out, err := svc.CampaignSummary(context.Background(), CampaignSummaryRequest{
		WorkspaceID: "ws-1",
		CampaignID:  "camp-1",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if out.TotalConversations != 3 {
		t.Fatalf("expected 3 conversations, got %d", out.TotalConversations)
	}
	if out.SuccessfulCalls != 2 || out.FailedCalls != 1 {
		t.Fatalf("unexpected success split: %+v", out)
	}
	if out.CountsByStatus["done"] != 2 || out.CountsByStatus["failed"] != 1 {
		t.Fatalf("unexpected status counts: %v", out.CountsByStatus)
	}
	if out.TotalDurationSeconds != 180 || out.AverageDurationSeconds != 60 {
		t.Fatalf("unexpected durations: %+v", out)
	}
	if out.TotalCost != 30 {
		t.Fatalf("expected total cost 30, got %d", out.TotalCost)
	}
	if out.SuccessRate < 0.66 || out.SuccessRate > 0.67 {
		t.Fatalf("unexpected success rate %f", out.SuccessRate)
	}
}

func TestCampaignSummary_RangeFilters(t *testing.T) {
	repo := NewMemoryRepo()
	seedSummaryData(repo)
	svc := NewService(repo)

	from := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	to := time.Date(2025, 6, 1, 10, 1, 30, 0, time.UTC)
	out, err := svc.CampaignSummary(context.Background(), CampaignSummaryRequest{
		WorkspaceID: "ws-1",
		CampaignID:  "camp-1",
		Range:       TimeRange{From: from, To: to},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalConversations != 1 {
		t.Fatalf("expected 1 conversation in range, got %d", out.TotalConversations)
	}
}

func TestCampaignSummary_Validation(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	cases := []CampaignSummaryRequest{
		{CampaignID: "camp-1"},
		{WorkspaceID: "ws-1"},
		{WorkspaceID: "ws-1", CampaignID: "camp-1",
			Range: TimeRange{From: time.Now(), To: time.Now().Add(-time.Hour)}},
	}
	for i, req := range cases {
		if _, err := svc.CampaignSummary(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: expected ErrInvalidRequest, got %v", i, err)
		}
	}
}

func TestCampaignSummary_EmptyCampaign(t *testing.T) {
	repo := NewMemoryRepo()
	repo.SeedBatch("batch-1", "camp-1")
	svc := NewService(repo)

	out, err := svc.CampaignSummary(context.Background(), CampaignSummaryRequest{
		WorkspaceID: "ws-1",
		CampaignID:  "camp-1",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalConversations != 0 || out.SuccessRate != 0 {
		t.Fatalf("expected zero summary, got %+v", out)
	}
}
