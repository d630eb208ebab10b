package voice

// Provider-agnostic request/response types for the conversational-voice
// vendor's batch-calling surface.
//
// Rules (carried over from the provider-adapter convention):
// - No vendor HTTP calls outside this package.
// - Business logic must not depend on raw vendor payloads; anything extra
//   travels as metadata.

// SubmitBatchRequest submits one outbound calling job.
type SubmitBatchRequest struct {
	CallName           string           `json:"call_name"`
	AgentID            string           `json:"agent_id"`
	AgentPhoneNumberID string           `json:"agent_phone_number_id"`
	ScheduledTimeUnix  int64            `json:"scheduled_time_unix"`
	Recipients         []BatchRecipient `json:"recipients"`
}

// BatchRecipient is one phone number in a batch, optionally carrying
// per-call template substitution data.
type BatchRecipient struct {
	PhoneNumber string `json:"phone_number"`

	ConversationInitiationClientData *InitiationClientData `json:"conversation_initiation_client_data,omitempty"`
}

// InitiationClientData carries the dynamic variables forwarded to the agent
// for template substitution on a single call.
type InitiationClientData struct {
	DynamicVariables map[string]any `json:"dynamic_variables,omitempty"`
}

// BatchStatus is the vendor's view of a batch job. Returned both by submit
// and by the status endpoint; recipients are only populated on the latter.
type BatchStatus struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Status               string `json:"status"` // pending, in_progress, completed, failed, cancelled
	AgentID              string `json:"agent_id"`
	TotalCallsDispatched int    `json:"total_calls_dispatched"`
	TotalCallsScheduled  int    `json:"total_calls_scheduled"`
	LastUpdatedAtUnix    int64  `json:"last_updated_at_unix"`

	Recipients []RecipientStatus `json:"recipients,omitempty"`
}

// RecipientStatus is the vendor's per-recipient progress row.
type RecipientStatus struct {
	ID             string `json:"id"`
	PhoneNumber    string `json:"phone_number"`
	Status         string `json:"status"`
	ConversationID string `json:"conversation_id,omitempty"`

	ConversationInitiationClientData *InitiationClientData `json:"conversation_initiation_client_data,omitempty"`
}

// ConversationDetail is the realized outcome of one call.
type ConversationDetail struct {
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	Status         string `json:"status"`

	Transcript []TranscriptTurn     `json:"transcript,omitempty"`
	Metadata   ConversationMetadata `json:"metadata"`
	Analysis   ConversationAnalysis `json:"analysis"`
}

type TranscriptTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type ConversationMetadata struct {
	CallDurationSecs int `json:"call_duration_secs"`
	Cost             int `json:"cost"`
}

type ConversationAnalysis struct {
	CallSuccessful    string `json:"call_successful"`
	TranscriptSummary string `json:"transcript_summary,omitempty"`
}
