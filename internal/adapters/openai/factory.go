package openai

import (
	"fmt"

	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/credential"
	"github.com/mikey/email-concierge/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of Drafter
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI drafters
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateDrafter creates a new OpenAI drafter
func (f *Factory) CreateDrafter() (core.Drafter, error) {
	openaiCfg := f.cfg.GetOpenAI()

	apiKey, err := credential.Resolve(openaiCfg.APIKey, credential.OpenAIKey)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API key not configured: %w", err)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
	}

	return NewDrafter(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
