package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"voiceagent-platform/internal/audit"
	"voiceagent-platform/internal/campaigns"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceEventHandler receives the vendor's asynchronous events.
//
// No business logic here: the handler authenticates the payload, converts
// it to internal types, and delegates to the campaigns service. A failed
// signature check rejects the request before anything is parsed or written.
type VoiceEventHandler struct {
	Secret    string
	Campaigns *campaigns.Service

	// Audit is optional; rejections are recorded best-effort.
	Audit *audit.Service
}

type eventEnvelope struct {
	Type           string          `json:"type"`
	EventTimestamp int64           `json:"event_timestamp"`
	Data           json.RawMessage `json:"data"`
}

type conversationEndedData struct {
	ConversationID    string          `json:"conversation_id"`
	BatchID           string          `json:"batch_id"`
	Status            string          `json:"status"`
	CallSuccessful    string          `json:"call_successful"`
	CallDurationSecs  int             `json:"call_duration_secs"`
	Cost              int             `json:"cost"`
	TranscriptSummary string          `json:"transcript_summary"`
	Analysis          json.RawMessage `json:"analysis"`
}

type batchStatusUpdateData struct {
	BatchID              string `json:"batch_id"`
	Status               string `json:"status"`
	TotalCallsDispatched int    `json:"total_calls_dispatched"`
	TotalCallsScheduled  int    `json:"total_calls_scheduled"`
}

func (h VoiceEventHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Campaigns == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaigns service not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !VerifySignature(h.Secret, body, c.GetHeader(SignatureHeader)) {
		log.Warn("webhook signature mismatch", "ip", c.ClientIP())
		if h.Audit != nil {
			_ = h.Audit.LogWebhookRejected(c.Request.Context(), c.ClientIP())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	switch env.Type {
	case "conversation_ended":
		h.handleConversationEnded(c, env.Data)
	case "batch_status_update":
		h.handleBatchStatusUpdate(c, env.Data)
	default:
		// Unknown event types are acknowledged so the vendor stops retrying.
		log.Debug("ignoring webhook event", "type", env.Type)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func (h VoiceEventHandler) handleConversationEnded(c *gin.Context, raw json.RawMessage) {
	log := logger.FromGin(c)

	var data conversationEndedData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event data"})
		return
	}

	ev := campaigns.ConversationEndedEvent{
		ConversationID:    data.ConversationID,
		BatchID:           data.BatchID,
		Status:            data.Status,
		Successful:        data.CallSuccessful == "success",
		DurationSeconds:   data.CallDurationSecs,
		Cost:              data.Cost,
		TranscriptSummary: data.TranscriptSummary,
		Analysis:          string(data.Analysis),
	}
	if err := h.Campaigns.RecordConversationEnded(c.Request.Context(), ev); err != nil {
		if errors.Is(err, campaigns.ErrNotFound) {
			// Unknown batch: acknowledge and log rather than trigger retries.
			log.Warn("conversation_ended for unknown batch", "batch_id", data.BatchID)
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if errors.Is(err, campaigns.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event data"})
			return
		}
		log.Error("conversation_ended processing failed", "conversation_id", data.ConversationID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h VoiceEventHandler) handleBatchStatusUpdate(c *gin.Context, raw json.RawMessage) {
	log := logger.FromGin(c)

	var data batchStatusUpdateData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event data"})
		return
	}

	err := h.Campaigns.ApplyBatchStatusUpdate(c.Request.Context(), data.BatchID, data.Status, data.TotalCallsDispatched, data.TotalCallsScheduled)
	if err != nil {
		if errors.Is(err, campaigns.ErrNotFound) {
			log.Warn("batch_status_update for unknown batch", "batch_id", data.BatchID)
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if errors.Is(err, campaigns.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event data"})
			return
		}
		log.Error("batch_status_update processing failed", "batch_id", data.BatchID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
