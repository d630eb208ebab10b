package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voiceagent-platform/internal/config"

	"google.golang.org/genai"
)

// ReplyGenerator produces a free-form answer for messages the state
// machine does not handle itself. Implementations must return a short
// plain-text reply suitable for WhatsApp.
type ReplyGenerator interface {
	Reply(ctx context.Context, userMessage string) (string, error)
}

const replyInstruction = "You are a pharmacy assistant answering WhatsApp messages. " +
	"Answer briefly and in plain text. Never give dosage advice beyond the package leaflet; " +
	"refer the customer to a pharmacist for anything medical."

// GenAIGenerator answers with Google's Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

func NewGenAIGenerator(ctx context.Context, cfg config.GenAIConfig) (*GenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pharmacy: genai api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("pharmacy: create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Reply(ctx context.Context, userMessage string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(replyInstruction+"\n\nCustomer: "+userMessage),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("pharmacy: generate reply: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("pharmacy: empty reply from model")
	}
	return text, nil
}
