package campaigns

import "strings"

// CampaignStatusForBatch maps a vendor batch status onto the owning
// campaign's status. Pure function; the only side effect permitted to the
// caller is the single conditional update when ok is true.
//
// Any status outside the two terminal groups is explicitly a no-op, not a
// default value: the caller must leave the campaign untouched.
func CampaignStatusForBatch(batchStatus string) (CampaignStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(batchStatus)) {
	case "completed", "successful", "success":
		return CampaignStatusCompleted, true
	case "failed", "error", "cancelled":
		return CampaignStatusFailed, true
	default:
		return "", false
	}
}
