package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports an unset range, meaning "whole campaign lifetime".
func (r TimeRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// CampaignSummaryRequest requests aggregated call outcomes for one campaign.
// Workspace isolation: WorkspaceID is required.

type CampaignSummaryRequest struct {
	WorkspaceID string    `json:"workspace_id"`
	CampaignID  string    `json:"campaign_id"`
	Range       TimeRange `json:"range,omitempty"`
}

type CampaignSummary struct {
	WorkspaceID string `json:"workspace_id"`
	CampaignID  string `json:"campaign_id"`

	TotalConversations int `json:"total_conversations"`
	SuccessfulCalls    int `json:"successful_calls"`
	FailedCalls        int `json:"failed_calls"`

	// CountsByStatus keys on the vendor's status vocabulary as stored.
	CountsByStatus map[string]int `json:"counts_by_status"`

	SuccessRate float64 `json:"success_rate"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// TotalCost is in vendor credit units, summed as stored.
	TotalCost int `json:"total_cost"`
}
