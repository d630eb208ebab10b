package pharmacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"voiceagent-platform/internal/config"
)

// Sender delivers outbound WhatsApp messages. WhatsAppClient is the
// production implementation; tests substitute fakes.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

var ErrMissingWhatsAppToken = errors.New("pharmacy: whatsapp token is required")

// WhatsAppClient sends messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	phoneNumberID string
}

func NewWhatsAppClient(cfg config.WhatsAppConfig) (*WhatsAppClient, error) {
	if cfg.Token == "" || cfg.PhoneNumberID == "" {
		return nil, ErrMissingWhatsAppToken
	}
	return &WhatsAppClient{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       defaultGraphBaseURL,
		token:         cfg.Token,
		phoneNumberID: cfg.PhoneNumberID,
	}, nil
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body       string `json:"body"`
		PreviewURL bool   `json:"preview_url"`
	} `json:"text"`
}

func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) error {
	msg := textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	msg.Text.Body = body

	buf, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("pharmacy: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("pharmacy: cloud api returned %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
