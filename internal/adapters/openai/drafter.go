package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/drafting"
	"github.com/mikey/email-concierge/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Drafter is an implementation of the core.Drafter interface using OpenAI
type Drafter struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewDrafter creates a new OpenAI drafter
func NewDrafter(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Drafter {
	return &Drafter{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Draft asks the chat completion API for a reply draft
func (d *Drafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	body := d.textProcessor.ProcessText(req.Body, d.maxBodySize)

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: drafting.SystemInstructions,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: drafting.FormatUserInput(req, body),
			},
		},
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
		TopP:        d.topP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}

	d.logger.Debug("OpenAI draft generated",
		zap.String("model", d.modelName),
		zap.String("response_id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}
