package factory

import (
	"fmt"

	"github.com/mikey/email-concierge/internal/adapters/bedrock"
	"github.com/mikey/email-concierge/internal/adapters/gemini"
	"github.com/mikey/email-concierge/internal/adapters/openai"
	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/drafting"
	"github.com/mikey/email-concierge/internal/ports"
	"github.com/mikey/email-concierge/internal/utils"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// LLMFactoryParams are the dependencies of LLMFactory. Store is nil when
// the draft cache is disabled.
type LLMFactoryParams struct {
	dig.In

	Config        *config.Config
	Logger        *zap.Logger
	TextProcessor *utils.TextProcessor
	Store         ports.DraftStore `optional:"true"`
}

// LLMFactory creates drafters
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	store         ports.DraftStore
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(p LLMFactoryParams) *LLMFactory {
	return &LLMFactory{
		cfg:           p.Config,
		logger:        p.Logger,
		textProcessor: p.TextProcessor,
		store:         p.Store,
	}
}

// CreateDrafter creates the configured provider's drafter, wrapped with the
// rate limiter and the draft cache when those are enabled
func (f *LLMFactory) CreateDrafter() (core.Drafter, error) {
	llmConfig := f.cfg.GetLLM()

	var drafter core.Drafter
	var err error
	switch llmConfig.Provider {
	case "bedrock":
		drafter, err = bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateDrafter()
	case "gemini":
		drafter, err = gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateDrafter()
	case "openai":
		drafter, err = openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateDrafter()
	case "none", "":
		f.logger.Info("Drafting disabled")
		return drafting.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, err
	}

	draftingCfg, err := f.cfg.GetDrafting()
	if err != nil {
		return nil, err
	}
	if draftingCfg.RateLimit > 0 {
		drafter = drafting.NewLimitedDrafter(drafter, draftingCfg.RateLimit, draftingCfg.Burst)
	}

	if f.store != nil {
		cacheCfg, err := f.cfg.GetCache()
		if err != nil {
			return nil, err
		}
		drafter = drafting.NewCachingDrafter(drafter, f.store, cacheCfg.TTL, f.logger)
	}

	f.logger.Info("Created drafter",
		zap.String("provider", llmConfig.Provider),
		zap.Bool("cached", f.store != nil),
		zap.Float64("rate_limit", draftingCfg.RateLimit))

	return drafter, nil
}
