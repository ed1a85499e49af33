package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/contacts"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/factory"
	"github.com/mikey/email-concierge/internal/logging"
	"github.com/mikey/email-concierge/internal/ports"
	"github.com/mikey/email-concierge/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the daemon. configFile may be empty to search the default locations.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewWithFile(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register frontends
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FrontendFactory) ([]ports.Frontend, error) {
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers everything between configuration and the concierge
// service. Both containers share it.
func provideCore(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register draft store; nil when caching is disabled
	if err := container.Provide(func(f *factory.CacheFactory) (ports.DraftStore, error) {
		return f.CreateDraftStore()
	}); err != nil {
		return err
	}

	// Register drafter
	if err := container.Provide(func(f *factory.LLMFactory) (core.Drafter, error) {
		return f.CreateDrafter()
	}); err != nil {
		return err
	}

	// Register vocabulary
	if err := container.Provide(func(cfg *config.Config) *core.VocabularyStore {
		return core.NewVocabularyStore(cfg.GetVocabulary())
	}); err != nil {
		return err
	}

	// Register contact directory
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *contacts.Directory {
		contactsCfg := cfg.GetContacts()
		return contacts.NewDirectory(contactsCfg.KnownAddresses, contactsCfg.KnownDomains, logger)
	}); err != nil {
		return err
	}

	// Register concierge service
	return container.Provide(func(
		cfg *config.Config,
		drafter core.Drafter,
		vocabulary *core.VocabularyStore,
		logger *zap.Logger,
	) (*core.ConciergeService, error) {
		draftingCfg, err := cfg.GetDrafting()
		if err != nil {
			return nil, err
		}
		return core.NewConciergeService(drafter, vocabulary, logger, draftingCfg.Timeout), nil
	})
}
