package httpapi

import (
	"errors"
	"net/http"
	"time"

	"voiceagent-platform/internal/audit"
	"voiceagent-platform/internal/auth"
	"voiceagent-platform/internal/campaigns"
	"voiceagent-platform/internal/rbac"
	"voiceagent-platform/internal/reporting"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Campaigns *campaigns.Service
	Reporting *reporting.Service

	// Audit is optional; audit failures never fail the request.
	Audit *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.WorkspaceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, workspace_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.WorkspaceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Campaigns ---

// LaunchCampaign submits a batch of calls for the campaign in the path.
// RBAC: owner or operator.
func (h Handlers) LaunchCampaign(c *gin.Context) {
	if h.Campaigns == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaigns not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())

	var req campaigns.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.CampaignID = c.Param("campaign_id")

	out, err := h.Campaigns.LaunchBatch(c.Request.Context(), workspaceID, userID, req)
	if err != nil {
		h.writeCampaignError(c, err, "launch failed")
		return
	}

	if h.Audit != nil {
		_ = h.Audit.LogCampaignLaunch(c.Request.Context(), workspaceID, userID, role, req.CampaignID, out.BatchID)
	}
	c.JSON(http.StatusAccepted, out)
}

// CheckBatchStatus fetches the vendor's current view of a batch once.
// The periodic loop keeps running regardless; this is the on-demand path.
func (h Handlers) CheckBatchStatus(c *gin.Context) {
	if h.Campaigns == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaigns not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	userID, _ := auth.UserID(c.Request.Context())

	batchID := c.Param("batch_id")
	if batchID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "batch_id required"})
		return
	}

	out, err := h.Campaigns.CheckBatchStatus(c.Request.Context(), workspaceID, batchID)
	if err != nil {
		h.writeCampaignError(c, err, "status check failed")
		return
	}

	if h.Audit != nil {
		_ = h.Audit.LogManualStatusCheck(c.Request.Context(), workspaceID, userID, batchID)
	}
	c.JSON(http.StatusOK, out)
}

// --- Reporting ---

// CampaignSummary aggregates call outcomes for a campaign.
// Optional from/to query params (RFC 3339) bound the range.
func (h Handlers) CampaignSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}

	req := reporting.CampaignSummaryRequest{
		WorkspaceID: workspaceID,
		CampaignID:  c.Param("campaign_id"),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		req.Range.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		req.Range.To = t
	}

	out, err := h.Reporting.CampaignSummary(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		logger.FromGin(c).Error("campaign summary failed", "campaign_id", req.CampaignID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) writeCampaignError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, campaigns.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, campaigns.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		var apiErr *voice.APIError
		if errors.As(err, &apiErr) {
			logger.FromGin(c).Error(msg, "vendor_status", apiErr.StatusCode, "err", err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "vendor error"})
			return
		}
		logger.FromGin(c).Error(msg, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// Convenience middleware bundles.

func RequireWorkspaceAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireWorkspace(), rbac.RequireAnyRole(roles...)}
}
