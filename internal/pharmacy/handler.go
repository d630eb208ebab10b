package pharmacy

import (
	"net/http"

	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler terminates the WhatsApp Cloud API webhook:
// the GET verification handshake and the POST message delivery.
type WebhookHandler struct {
	VerifyToken string
	Bot         *Bot
}

// Verify answers Meta's subscription handshake. The challenge must be
// echoed verbatim with a 200 or the subscription is refused.
func (h WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.AbortWithStatus(http.StatusForbidden)
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []incomingMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type incomingMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Receive processes inbound messages. The Cloud API retries on non-2xx,
// so processing failures are logged and acknowledged rather than
// surfaced; a retry would replay the same conversation step.
func (h WebhookHandler) Receive(c *gin.Context) {
	log := logger.FromGin(c)

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" {
					log.Debug("ignoring non-text message", "type", msg.Type, "message_id", msg.ID)
					continue
				}
				if err := h.Bot.HandleMessage(c.Request.Context(), msg.From, msg.Text.Body); err != nil {
					log.Error("pharmacy message handling failed", "message_id", msg.ID, "err", err)
				}
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
