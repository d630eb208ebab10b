package main

import (
	"database/sql"
	"net/http"
	"time"

	"voiceagent-platform/internal/audit"
	"voiceagent-platform/internal/auth"
	"voiceagent-platform/internal/campaigns"
	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/httpapi"
	"voiceagent-platform/internal/pharmacy"
	"voiceagent-platform/internal/rbac"
	"voiceagent-platform/internal/webhooks"
	"voiceagent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg      config.Config
	db       *sql.DB
	authMW   gin.HandlerFunc
	handlers httpapi.Handlers

	campaigns *campaigns.Service
	audit     *audit.Service

	// bot is nil when the pharmacy surface is disabled.
	bot *pharmacy.Bot
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.PingPostgres(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Vendor webhooks (public). Authenticated by HMAC signature, not JWT.
	voiceHook := webhooks.VoiceEventHandler{
		Secret:    deps.cfg.Voice.WebhookSecret,
		Campaigns: deps.campaigns,
		Audit:     deps.audit,
	}
	r.POST("/webhooks/voice", voiceHook.Handle)

	if deps.bot != nil {
		waHook := pharmacy.WebhookHandler{
			VerifyToken: deps.cfg.WhatsApp.VerifyToken,
			Bot:         deps.bot,
		}
		r.GET("/webhooks/whatsapp", waHook.Verify)
		r.POST("/webhooks/whatsapp", waHook.Receive)
	}

	// AUTH routes (token issuance) sit outside the protected group.
	// NOTE: Login validates shape only; real credential validation is not implemented.
	r.POST("/v1/auth/login", deps.handlers.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(deps.authMW)
	{
		h := deps.handlers

		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			wid, _ := auth.WorkspaceID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "workspace_id": wid, "role": role})
		})

		// CAMPAIGN routes
		campaignGroup := v1.Group("/campaigns")
		campaignGroup.Use(rbac.RequireWorkspace())
		{
			launch := campaignGroup.Group("")
			launch.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleSuperAdmin))
			{
				launch.POST("/:campaign_id/launch", h.LaunchCampaign)
			}

			read := campaignGroup.Group("")
			read.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
			{
				read.GET("/:campaign_id/summary", h.CampaignSummary)
			}
		}

		// BATCH routes
		batches := v1.Group("/batches")
		batches.Use(rbac.RequireWorkspace())
		batches.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleSuperAdmin))
		{
			batches.POST("/:batch_id/check", h.CheckBatchStatus)
		}
	}
}
