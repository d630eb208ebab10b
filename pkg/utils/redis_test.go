package utils

import (
	"context"
	"testing"
	"time"
)

func TestPollSlotScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if slotAcquireScript == nil || slotReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestAcquireBatchPollSlot_RejectsInvalidArgs(t *testing.T) {
	ctx := context.Background()

	if _, err := AcquireBatchPollSlot(ctx, nil, "b1", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseBatchPollSlot(ctx, nil, "b1"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
