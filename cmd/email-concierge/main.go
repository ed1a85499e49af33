package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/di"
	"github.com/mikey/email-concierge/internal/ports"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Path to config file (searched in the default locations if empty)")
	pflag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	frontends []ports.Frontend,
	drafter core.Drafter,
	store ports.DraftStore,
	vocabulary *core.VocabularyStore,
) error {
	defer logger.Sync()

	// Start the frontends
	for i, frontend := range frontends {
		if err := frontend.Start(); err != nil {
			logger.Error("Failed to start frontend", zap.Error(err))
			for _, started := range frontends[:i] {
				_ = started.Stop()
			}
			return err
		}
	}

	// Vocabulary edits apply without a restart
	cfg.WatchVocabulary(vocabulary, logger)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	var errs error
	for _, frontend := range frontends {
		errs = multierr.Append(errs, frontend.Stop())
	}

	// Close any resources that need closing
	if closer, ok := drafter.(interface{ Close() error }); ok {
		errs = multierr.Append(errs, closer.Close())
	}

	// Stop the cache if one is configured
	if store != nil {
		store.Stop()
	}

	if errs != nil {
		logger.Error("Shutdown completed with errors", zap.Error(errs))
		return errs
	}

	logger.Info("Shutdown complete")
	return nil
}
