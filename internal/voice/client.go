package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"voiceagent-platform/internal/config"
)

// API is the batch-calling contract consumed by business logic.
// Client is the production implementation; tests substitute fakes.
type API interface {
	SubmitBatch(ctx context.Context, req SubmitBatchRequest) (BatchStatus, error)
	GetBatch(ctx context.Context, batchID string) (BatchStatus, error)
	GetConversation(ctx context.Context, conversationID string) (ConversationDetail, error)
}

const apiKeyHeader = "xi-api-key"

var ErrMissingAPIKey = errors.New("voice: api key is required")

// APIError is a non-2xx vendor response. The body is kept for operator
// diagnostics; callers should branch on StatusCode only.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice: vendor returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the conversational-voice vendor over HTTP.
// Constructed once per process and never mutated.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.VoiceConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}, nil
}

func (c *Client) SubmitBatch(ctx context.Context, req SubmitBatchRequest) (BatchStatus, error) {
	var out BatchStatus
	err := c.do(ctx, http.MethodPost, "/v1/convai/batch-calling/submit", req, &out)
	return out, err
}

func (c *Client) GetBatch(ctx context.Context, batchID string) (BatchStatus, error) {
	var out BatchStatus
	if batchID == "" {
		return out, errors.New("voice: batch id is required")
	}
	err := c.do(ctx, http.MethodGet, "/v1/convai/batch-calling/"+url.PathEscape(batchID), nil, &out)
	return out, err
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (ConversationDetail, error) {
	var out ConversationDetail
	if conversationID == "" {
		return out, errors.New("voice: conversation id is required")
	}
	err := c.do(ctx, http.MethodGet, "/v1/convai/conversations/"+url.PathEscape(conversationID), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("voice: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Bound the body read; vendor error payloads are small.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("voice: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("voice: decode response: %w", err)
		}
	}
	return nil
}
