package factory

import (
	"fmt"

	"github.com/mikey/email-concierge/internal/adapters/filter"
	"github.com/mikey/email-concierge/internal/adapters/httpapi"
	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/contacts"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates the frontends listed in server.frontends
type FrontendFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	service  *core.ConciergeService
	contacts *contacts.Directory
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.ConciergeService,
	directory *contacts.Directory,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		contacts: directory,
	}
}

// CreateFrontends creates every configured frontend
func (f *FrontendFactory) CreateFrontends() ([]ports.Frontend, error) {
	names := f.cfg.GetList("server.frontends")
	if len(names) == 0 {
		return nil, fmt.Errorf("no frontends configured in server.frontends")
	}

	frontends := make([]ports.Frontend, 0, len(names))
	for _, name := range names {
		frontend, err := f.createFrontend(name)
		if err != nil {
			return nil, err
		}
		frontends = append(frontends, frontend)
	}
	return frontends, nil
}

func (f *FrontendFactory) createFrontend(name string) (ports.Frontend, error) {
	switch name {
	case "http":
		httpCfg, err := f.cfg.GetHTTP()
		if err != nil {
			return nil, err
		}
		return httpapi.NewServer(f.service, f.contacts, f.logger.Named("http"), httpCfg), nil
	case "smtp", "postfix":
		return filter.NewPostfixFilter(f.service, f.contacts, f.logger.Named("smtp"), f.cfg.GetSMTP()), nil
	default:
		return nil, fmt.Errorf("unsupported frontend: %s", name)
	}
}
