package gemini

import (
	"context"
	"fmt"

	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/credential"
	"github.com/mikey/email-concierge/internal/utils"
	"go.uber.org/zap"
)

// Factory creates new instances of Drafter
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini drafters
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateDrafter creates a new Gemini drafter
func (f *Factory) CreateDrafter() (core.Drafter, error) {
	geminiCfg := f.cfg.GetGemini()

	apiKey, err := credential.Resolve(geminiCfg.APIKey, credential.GeminiKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key not configured: %w", err)
	}

	return NewDrafter(
		context.Background(),
		apiKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
