package campaigns

import (
	"context"
	"errors"
	"testing"
	"time"

	"voiceagent-platform/internal/voice"
)

type fakeVoiceAPI struct {
	submitResp voice.BatchStatus
	submitErr  error
	submitted  []voice.SubmitBatchRequest

	getResponses []getBatchResponse
	getCalls     int
}

type getBatchResponse struct {
	vs  voice.BatchStatus
	err error
}

func (f *fakeVoiceAPI) SubmitBatch(ctx context.Context, req voice.SubmitBatchRequest) (voice.BatchStatus, error) {
	f.submitted = append(f.submitted, req)
	return f.submitResp, f.submitErr
}

func (f *fakeVoiceAPI) GetBatch(ctx context.Context, batchID string) (voice.BatchStatus, error) {
	i := f.getCalls
	f.getCalls++
	if i >= len(f.getResponses) {
		// repeat the last scripted response
		i = len(f.getResponses) - 1
	}
	r := f.getResponses[i]
	return r.vs, r.err
}

func (f *fakeVoiceAPI) GetConversation(ctx context.Context, conversationID string) (voice.ConversationDetail, error) {
	return voice.ConversationDetail{}, errors.New("not scripted")
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Unix(1700000000, 0).UTC() }
}

func launchRequest() LaunchRequest {
	return LaunchRequest{
		CampaignID:        "camp-1",
		CallName:          "spring outreach",
		AgentID:           "agent-1",
		PhoneNumberID:     "pn-1",
		ScheduledTimeUnix: 1700000100,
		Recipients: []map[string]any{
			{"phone": "+15551234567", "name": "Dana", "id": "r1", "clinic": "Acme"},
		},
	}
}

func TestLaunchBatch_MapsDynamicVariablesAndSkipsReservedKeys(t *testing.T) {
	repo := NewMemoryRepo()
	repo.SeedCampaign(Campaign{ID: "camp-1", WorkspaceID: "ws-1", Status: CampaignStatusDraft})

	api := &fakeVoiceAPI{submitResp: voice.BatchStatus{ID: "batch-1", Name: "spring outreach", Status: "pending", TotalCallsScheduled: 1}}
	svc := NewService(repo, api, nil)
	svc.clock = fixedClock()

	out, err := svc.LaunchBatch(context.Background(), "ws-1", "user-1", launchRequest())
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if out.BatchID != "batch-1" || out.CallsScheduled != 1 {
		t.Fatalf("unexpected result: %+v", out)
	}

	if len(api.submitted) != 1 {
		t.Fatalf("expected one submit call, got %d", len(api.submitted))
	}
	rec := api.submitted[0].Recipients[0]
	if rec.PhoneNumber != "+15551234567" {
		t.Fatalf("unexpected phone: %q", rec.PhoneNumber)
	}
	if rec.ConversationInitiationClientData == nil {
		t.Fatalf("expected dynamic variables")
	}
	vars := rec.ConversationInitiationClientData.DynamicVariables
	if vars["clinic"] != "Acme" {
		t.Fatalf("expected clinic variable, got %+v", vars)
	}
	for _, reserved := range []string{"phone", "name", "id"} {
		if _, ok := vars[reserved]; ok {
			t.Fatalf("reserved key %q leaked into dynamic variables", reserved)
		}
	}
}

func TestLaunchBatch_MarksCampaignLaunchedAndPersistsBatch(t *testing.T) {
	repo := NewMemoryRepo()
	repo.SeedCampaign(Campaign{ID: "camp-1", WorkspaceID: "ws-1", Status: CampaignStatusDraft})

	api := &fakeVoiceAPI{submitResp: voice.BatchStatus{ID: "batch-1", Name: "spring outreach", Status: "pending", TotalCallsScheduled: 1}}

	var spawned []string
	svc := NewService(repo, api, func(workspaceID, batchID string) {
		spawned = append(spawned, workspaceID+"/"+batchID)
	})
	svc.clock = fixedClock()

	if _, err := svc.LaunchBatch(context.Background(), "ws-1", "user-1", launchRequest()); err != nil {
		t.Fatalf("launch: %v", err)
	}

	c, ok := repo.Campaign("ws-1", "camp-1")
	if !ok || c.Status != CampaignStatusLaunched {
		t.Fatalf("expected Launched campaign, got %+v", c)
	}
	if c.LaunchedAt == nil || !c.LaunchedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("expected launch timestamp, got %+v", c.LaunchedAt)
	}

	b, ok := repo.Batch("batch-1")
	if !ok {
		t.Fatalf("expected batch row")
	}
	if b.CampaignID != "camp-1" || b.Status != "pending" || b.CallsScheduled != 1 {
		t.Fatalf("unexpected batch row: %+v", b)
	}

	if len(spawned) != 1 || spawned[0] != "ws-1/batch-1" {
		t.Fatalf("expected poll spawn for batch-1, got %v", spawned)
	}
}

func TestLaunchBatch_VendorErrorWritesNothing(t *testing.T) {
	repo := NewMemoryRepo()
	repo.SeedCampaign(Campaign{ID: "camp-1", WorkspaceID: "ws-1", Status: CampaignStatusDraft})

	api := &fakeVoiceAPI{submitErr: &voice.APIError{StatusCode: 500, Body: "boom"}}
	svc := NewService(repo, api, func(string, string) { t.Fatal("poll must not be spawned") })

	_, err := svc.LaunchBatch(context.Background(), "ws-1", "user-1", launchRequest())
	if err == nil {
		t.Fatalf("expected launch failure")
	}

	if c, _ := repo.Campaign("ws-1", "camp-1"); c.Status != CampaignStatusDraft {
		t.Fatalf("campaign must stay Draft, got %q", c.Status)
	}
	if _, ok := repo.Batch("batch-1"); ok {
		t.Fatalf("no batch row must be written on vendor failure")
	}
}

func TestLaunchBatch_RejectsInvalidArgs(t *testing.T) {
	svc := NewService(NewMemoryRepo(), &fakeVoiceAPI{}, nil)

	cases := []LaunchRequest{
		{},
		{CampaignID: "c", CallName: "n", AgentID: "a", PhoneNumberID: "p"}, // no recipients
	}
	for i, req := range cases {
		if _, err := svc.LaunchBatch(context.Background(), "ws", "u", req); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}

	req := launchRequest()
	req.Recipients = []map[string]any{{"clinic": "Acme"}} // missing phone
	if _, err := svc.LaunchBatch(context.Background(), "ws", "u", req); err == nil {
		t.Fatalf("expected error for recipient without phone")
	}
}

func TestCheckBatchStatus_ReconcilesAndProjects(t *testing.T) {
	repo := NewMemoryRepo()
	repo.SeedCampaign(Campaign{ID: "camp-1", WorkspaceID: "ws-1", Status: CampaignStatusLaunched})
	seedBatch(t, repo, "ws-1", "batch-1", "camp-1")

	api := &fakeVoiceAPI{getResponses: []getBatchResponse{{vs: voice.BatchStatus{
		ID:                   "batch-1",
		Status:               "completed",
		TotalCallsDispatched: 2,
		TotalCallsScheduled:  2,
		Recipients: []voice.RecipientStatus{
			{ID: "r1", PhoneNumber: "+15550001111", Status: "completed", ConversationID: "conv-1"},
		},
	}}}}
	svc := NewService(repo, api, nil)
	svc.clock = fixedClock()

	out, err := svc.CheckBatchStatus(context.Background(), "ws-1", "batch-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !out.Completed || out.Status != "completed" || out.CallsDispatched != 2 {
		t.Fatalf("unexpected check result: %+v", out)
	}

	if c, _ := repo.Campaign("ws-1", "camp-1"); c.Status != CampaignStatusCompleted {
		t.Fatalf("expected Completed campaign, got %q", c.Status)
	}
	if rows := repo.RecipientRows("batch-1"); len(rows) != 1 {
		t.Fatalf("expected one recipient row, got %d", len(rows))
	}
	if _, ok := repo.Conversation("conv-1"); !ok {
		t.Fatalf("expected conversation placeholder")
	}
}

func TestCheckBatchStatus_NonTerminalLeavesCampaignUnchanged(t *testing.T) {
	repo := NewMemoryRepo()
	repo.SeedCampaign(Campaign{ID: "camp-1", WorkspaceID: "ws-1", Status: CampaignStatusLaunched})
	seedBatch(t, repo, "ws-1", "batch-1", "camp-1")

	api := &fakeVoiceAPI{getResponses: []getBatchResponse{{vs: voice.BatchStatus{ID: "batch-1", Status: "in_progress"}}}}
	svc := NewService(repo, api, nil)
	svc.clock = fixedClock()

	out, err := svc.CheckBatchStatus(context.Background(), "ws-1", "batch-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if out.Completed {
		t.Fatalf("in_progress must not report completed")
	}
	if c, _ := repo.Campaign("ws-1", "camp-1"); c.Status != CampaignStatusLaunched {
		t.Fatalf("non-terminal status must not touch the campaign, got %q", c.Status)
	}
}

func TestCampaignStatusForBatch_Mapping(t *testing.T) {
	cases := []struct {
		in   string
		want CampaignStatus
		ok   bool
	}{
		{"completed", CampaignStatusCompleted, true},
		{"COMPLETED", CampaignStatusCompleted, true},
		{"successful", CampaignStatusCompleted, true},
		{"success", CampaignStatusCompleted, true},
		{"failed", CampaignStatusFailed, true},
		{"error", CampaignStatusFailed, true},
		{"cancelled", CampaignStatusFailed, true},
		{"in_progress", "", false},
		{"pending", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CampaignStatusForBatch(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("CampaignStatusForBatch(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func seedBatch(t *testing.T, repo *MemoryRepo, workspaceID, batchID, campaignID string) {
	t.Helper()
	if err := repo.UpsertBatch(context.Background(), Batch{
		ID:          batchID,
		WorkspaceID: workspaceID,
		CampaignID:  campaignID,
		Status:      BatchStatusPending,
	}); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
}
