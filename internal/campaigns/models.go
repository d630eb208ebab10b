package campaigns

import "time"

// Campaign is a named outbound-calling job owned by a workspace user.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
// Status transitions are driven only by the reconciliation loop or the
// explicit launch action; campaigns are never deleted by this subsystem.
type Campaign struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	Name        string `json:"name" db:"name"`

	Status CampaignStatus `json:"status" db:"status"`

	// AgentID and PhoneNumberID reference vendor-side resources.
	AgentID       string `json:"agent_id" db:"agent_id"`
	PhoneNumberID string `json:"phone_number_id" db:"phone_number_id"`

	LaunchedAt *time.Time `json:"launched_at,omitempty" db:"launched_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "Draft"
	CampaignStatusLaunched  CampaignStatus = "Launched"
	CampaignStatusCompleted CampaignStatus = "Completed"
	CampaignStatusFailed    CampaignStatus = "Failed"
)

// Batch is the handle to an in-flight vendor calling job.
// ID is the vendor's job identifier and is globally unique.
// Rows are created at launch, mutated only by reconciliation, never deleted.
type Batch struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	CampaignID  string `json:"campaign_id,omitempty" db:"campaign_id"`
	Name        string `json:"name" db:"name"`

	// Status mirrors the vendor vocabulary:
	// pending, in_progress, completed, failed, cancelled.
	Status string `json:"status" db:"status"`

	CallsDispatched int `json:"calls_dispatched" db:"calls_dispatched"`
	CallsScheduled  int `json:"calls_scheduled" db:"calls_scheduled"`

	LastUpdatedAt time.Time `json:"last_updated_at" db:"last_updated_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

const (
	BatchStatusPending    = "pending"
	BatchStatusInProgress = "in_progress"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
	BatchStatusCancelled  = "cancelled"
)

// Recipient is one phone number called as part of a batch.
//
// Uniqueness invariant: at most one row per (batch_id, external_id),
// enforced at the store and relied upon by the upsert.
type Recipient struct {
	BatchID     string `json:"batch_id" db:"batch_id"`
	ExternalID  string `json:"external_id" db:"external_id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Status      string `json:"status" db:"status"`

	// ConversationID links to the realized call once the vendor assigns one.
	ConversationID string `json:"conversation_id,omitempty" db:"conversation_id"`

	// InitiationData is the per-call template substitution payload (JSON).
	InitiationData string `json:"initiation_data,omitempty" db:"initiation_data"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Conversation is one realized call outcome.
//
// Uniqueness invariant: at most one row per vendor conversation id,
// regardless of whether the polling loop's placeholder or the webhook's
// full payload arrives first. Both paths write via upsert-on-conflict.
type Conversation struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	BatchID     string `json:"batch_id,omitempty" db:"batch_id"`

	Status     string `json:"status" db:"status"`
	Successful bool   `json:"successful" db:"successful"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// Cost is in vendor credit units, stored as-is.
	Cost int `json:"cost" db:"cost"`

	TranscriptSummary string `json:"transcript_summary,omitempty" db:"transcript_summary"`

	// Analysis is the vendor's analysis payload (JSON).
	Analysis string `json:"analysis,omitempty" db:"analysis"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
