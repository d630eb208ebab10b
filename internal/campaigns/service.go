package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"
)

// Service orchestrates campaign launches and on-demand status checks.
//
// Consistency note: a persistence failure after a successful vendor submit
// is logged and surfaced but never rolled back remotely — the calling job
// has already started on the vendor side. This inconsistency window is
// deliberate and visible, not silently corrected.
type Service struct {
	repo Repository
	api  voice.API

	// spawnPoll triggers the reconciliation loop after a successful launch.
	// Fire-and-forget: the caller never observes the poll result. Nil
	// disables the trigger (tests, or when a separate worker owns polling).
	spawnPoll func(workspaceID, batchID string)

	clock func() time.Time
}

func NewService(repo Repository, api voice.API, spawnPoll func(workspaceID, batchID string)) *Service {
	return &Service{repo: repo, api: api, spawnPoll: spawnPoll, clock: time.Now}
}

var ErrInvalidArgument = errors.New("campaigns: invalid argument")

// reservedRecipientKeys never enter dynamic_variables; they address the
// call itself rather than template substitution.
var reservedRecipientKeys = map[string]struct{}{
	"phone": {},
	"name":  {},
	"id":    {},
}

// LaunchRequest describes one batch launch. Each recipient is a flat bag of
// key/value fields; "phone" is required, and everything outside the reserved
// keys is forwarded to the vendor as per-call dynamic variables.
type LaunchRequest struct {
	CampaignID        string           `json:"campaign_id"`
	CallName          string           `json:"call_name"`
	AgentID           string           `json:"agent_id"`
	PhoneNumberID     string           `json:"phone_number_id"`
	ScheduledTimeUnix int64            `json:"scheduled_time_unix"`
	Recipients        []map[string]any `json:"recipients"`
}

type LaunchResult struct {
	BatchID        string `json:"batch_id"`
	Status         string `json:"status"`
	CallsScheduled int    `json:"calls_scheduled"`
}

func (s *Service) LaunchBatch(ctx context.Context, workspaceID, userID string, req LaunchRequest) (LaunchResult, error) {
	log := logger.From(ctx)

	if workspaceID == "" || userID == "" {
		return LaunchResult{}, ErrInvalidArgument
	}
	if req.CampaignID == "" || req.CallName == "" || req.AgentID == "" || req.PhoneNumberID == "" {
		return LaunchResult{}, ErrInvalidArgument
	}
	if len(req.Recipients) == 0 {
		return LaunchResult{}, ErrInvalidArgument
	}

	submit := voice.SubmitBatchRequest{
		CallName:           req.CallName,
		AgentID:            req.AgentID,
		AgentPhoneNumberID: req.PhoneNumberID,
		ScheduledTimeUnix:  req.ScheduledTimeUnix,
		Recipients:         make([]voice.BatchRecipient, 0, len(req.Recipients)),
	}
	for i, fields := range req.Recipients {
		rec, err := buildRecipientPayload(fields)
		if err != nil {
			return LaunchResult{}, fmt.Errorf("campaigns: recipient %d: %w", i, err)
		}
		submit.Recipients = append(submit.Recipients, rec)
	}

	// One vendor call. A non-success response aborts the launch with no
	// Batch row written.
	vs, err := s.api.SubmitBatch(ctx, submit)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("campaigns: submit batch: %w", err)
	}

	now := s.clock().UTC()
	if err := s.repo.MarkCampaignLaunched(ctx, workspaceID, req.CampaignID, now); err != nil {
		log.Error("campaign launch persisted remotely but local update failed",
			"campaign_id", req.CampaignID, "batch_id", vs.ID, "err", err)
		return LaunchResult{}, fmt.Errorf("campaigns: mark launched: %w", err)
	}

	batch := Batch{
		ID:              vs.ID,
		WorkspaceID:     workspaceID,
		CampaignID:      req.CampaignID,
		Name:            vs.Name,
		Status:          normalizeBatchStatus(vs.Status),
		CallsDispatched: vs.TotalCallsDispatched,
		CallsScheduled:  vs.TotalCallsScheduled,
		LastUpdatedAt:   now,
		CreatedAt:       now,
	}
	if err := s.repo.UpsertBatch(ctx, batch); err != nil {
		log.Error("batch row write failed after successful submit",
			"batch_id", vs.ID, "err", err)
		return LaunchResult{}, fmt.Errorf("campaigns: persist batch: %w", err)
	}

	// Fire-and-forget: the poll outcome is not observed by this caller.
	if s.spawnPoll != nil {
		s.spawnPoll(workspaceID, vs.ID)
	}

	return LaunchResult{
		BatchID:        vs.ID,
		Status:         normalizeBatchStatus(vs.Status),
		CallsScheduled: vs.TotalCallsScheduled,
	}, nil
}

func buildRecipientPayload(fields map[string]any) (voice.BatchRecipient, error) {
	phone, _ := fields["phone"].(string)
	if phone == "" {
		return voice.BatchRecipient{}, errors.New("phone is required")
	}

	vars := make(map[string]any)
	for k, v := range fields {
		if _, reserved := reservedRecipientKeys[k]; reserved {
			continue
		}
		vars[k] = v
	}

	rec := voice.BatchRecipient{PhoneNumber: phone}
	if len(vars) > 0 {
		rec.ConversationInitiationClientData = &voice.InitiationClientData{DynamicVariables: vars}
	}
	return rec, nil
}

// BatchCheck is the manual on-demand status-check result.
type BatchCheck struct {
	BatchID         string `json:"batch_id"`
	Status          string `json:"status"`
	CallsDispatched int    `json:"calls_dispatched"`
	CallsScheduled  int    `json:"calls_scheduled"`
	Completed       bool   `json:"completed"`
}

// CheckBatchStatus fetches the vendor's current view once, reconciles rows,
// and applies the campaign projection. Used by the on-demand path; a vendor
// error aborts this check only and leaves any running poll loop unaffected.
func (s *Service) CheckBatchStatus(ctx context.Context, workspaceID, batchID string) (BatchCheck, error) {
	if workspaceID == "" || batchID == "" {
		return BatchCheck{}, ErrInvalidArgument
	}

	vs, err := s.api.GetBatch(ctx, batchID)
	if err != nil {
		return BatchCheck{}, fmt.Errorf("campaigns: get batch: %w", err)
	}

	now := s.clock().UTC()
	reconcileVendorBatch(ctx, s.repo, workspaceID, vs, now)
	applyCampaignProjection(ctx, s.repo, workspaceID, vs.ID, vs.Status)

	status := normalizeBatchStatus(vs.Status)
	return BatchCheck{
		BatchID:         vs.ID,
		Status:          status,
		CallsDispatched: vs.TotalCallsDispatched,
		CallsScheduled:  vs.TotalCallsScheduled,
		Completed:       status == BatchStatusCompleted,
	}, nil
}

// ConversationEndedEvent is the webhook's richer per-call outcome.
type ConversationEndedEvent struct {
	ConversationID    string
	BatchID           string
	Status            string
	Successful        bool
	DurationSeconds   int
	Cost              int
	TranscriptSummary string
	Analysis          string
}

// RecordConversationEnded upserts the full conversation row delivered by a
// webhook. Keyed by conversation id: a placeholder written by the polling
// loop is overwritten, a duplicate delivery leaves exactly one row.
func (s *Service) RecordConversationEnded(ctx context.Context, ev ConversationEndedEvent) error {
	if ev.ConversationID == "" || ev.BatchID == "" {
		return ErrInvalidArgument
	}

	b, err := s.repo.FindBatch(ctx, ev.BatchID)
	if err != nil {
		return fmt.Errorf("campaigns: resolve batch %s: %w", ev.BatchID, err)
	}

	now := s.clock().UTC()
	return s.repo.UpsertConversation(ctx, Conversation{
		ID:                ev.ConversationID,
		WorkspaceID:       b.WorkspaceID,
		BatchID:           ev.BatchID,
		Status:            ev.Status,
		Successful:        ev.Successful,
		DurationSeconds:   ev.DurationSeconds,
		Cost:              ev.Cost,
		TranscriptSummary: ev.TranscriptSummary,
		Analysis:          ev.Analysis,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

// ApplyBatchStatusUpdate handles the webhook's batch progress event:
// upsert the batch row and project the campaign status.
func (s *Service) ApplyBatchStatusUpdate(ctx context.Context, batchID, status string, dispatched, scheduled int) error {
	if batchID == "" {
		return ErrInvalidArgument
	}

	b, err := s.repo.FindBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("campaigns: resolve batch %s: %w", batchID, err)
	}

	now := s.clock().UTC()
	b.Status = normalizeBatchStatus(status)
	b.CallsDispatched = dispatched
	if scheduled > 0 {
		b.CallsScheduled = scheduled
	}
	b.LastUpdatedAt = now
	if err := s.repo.UpsertBatch(ctx, b); err != nil {
		return fmt.Errorf("campaigns: upsert batch: %w", err)
	}

	applyCampaignProjection(ctx, s.repo, b.WorkspaceID, batchID, status)
	return nil
}

func normalizeBatchStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// reconcileVendorBatch materializes one vendor snapshot into local rows.
// Store errors are logged per row and do not abort the remaining rows:
// persistence here is best-effort, the next snapshot repairs gaps.
func reconcileVendorBatch(ctx context.Context, repo Repository, workspaceID string, vs voice.BatchStatus, now time.Time) {
	log := logger.From(ctx)

	batch := Batch{
		ID:              vs.ID,
		WorkspaceID:     workspaceID,
		Name:            vs.Name,
		Status:          normalizeBatchStatus(vs.Status),
		CallsDispatched: vs.TotalCallsDispatched,
		CallsScheduled:  vs.TotalCallsScheduled,
		LastUpdatedAt:   now,
		CreatedAt:       now,
	}
	if err := repo.UpsertBatch(ctx, batch); err != nil {
		log.Error("batch upsert failed", "batch_id", vs.ID, "err", err)
	}

	for _, rs := range vs.Recipients {
		if rs.ConversationID != "" {
			placeholder := Conversation{
				ID:          rs.ConversationID,
				WorkspaceID: workspaceID,
				BatchID:     vs.ID,
				Status:      rs.Status,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repo.EnsureConversation(ctx, placeholder); err != nil {
				log.Error("conversation placeholder write failed",
					"conversation_id", rs.ConversationID, "batch_id", vs.ID, "err", err)
			}
		}

		var initData string
		if rs.ConversationInitiationClientData != nil {
			if raw, err := json.Marshal(rs.ConversationInitiationClientData); err == nil {
				initData = string(raw)
			}
		}
		rec := Recipient{
			BatchID:        vs.ID,
			ExternalID:     rs.ID,
			WorkspaceID:    workspaceID,
			PhoneNumber:    rs.PhoneNumber,
			Status:         rs.Status,
			ConversationID: rs.ConversationID,
			InitiationData: initData,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repo.UpsertRecipient(ctx, rec); err != nil {
			log.Error("recipient upsert failed",
				"batch_id", vs.ID, "external_id", rs.ID, "err", err)
		}
	}
}

// applyCampaignProjection translates a batch status onto the owning
// campaign. Non-terminal statuses are an explicit no-op; repeated calls
// with the same status are idempotent.
func applyCampaignProjection(ctx context.Context, repo Repository, workspaceID, batchID, vendorStatus string) {
	log := logger.From(ctx)

	status, ok := CampaignStatusForBatch(vendorStatus)
	if !ok {
		return
	}

	b, err := repo.GetBatch(ctx, workspaceID, batchID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("batch lookup for projection failed", "batch_id", batchID, "err", err)
		}
		return
	}
	if b.CampaignID == "" {
		return
	}
	if err := repo.SetCampaignStatus(ctx, workspaceID, b.CampaignID, status); err != nil {
		log.Error("campaign status projection failed",
			"campaign_id", b.CampaignID, "batch_id", batchID, "err", err)
	}
}
