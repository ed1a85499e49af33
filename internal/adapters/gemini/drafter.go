package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/drafting"
	"github.com/mikey/email-concierge/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Drafter is an implementation of the core.Drafter interface using Google Gemini
type Drafter struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewDrafter creates a new Gemini drafter
func NewDrafter(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Drafter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(drafting.SystemInstructions)},
	}

	return &Drafter{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (d *Drafter) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// Draft generates a reply draft with Gemini
func (d *Drafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	body := d.textProcessor.ProcessText(req.Body, d.maxBodySize)

	resp, err := d.model.GenerateContent(ctx, genai.Text(drafting.FormatUserInput(req, body)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("empty response from Gemini")
	}

	d.logger.Debug("Gemini draft generated", zap.String("model", d.modelName))
	return text, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
