package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/anomaly-classifier/internal/adapters/httpapi"
	"github.com/mikey/anomaly-classifier/internal/artifacts"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/core"
	"github.com/mikey/anomaly-classifier/internal/factory"
	"github.com/mikey/anomaly-classifier/internal/logging"
	"github.com/mikey/anomaly-classifier/internal/metadata"
	"github.com/mikey/anomaly-classifier/internal/ports"
	"github.com/mikey/anomaly-classifier/internal/utils"
	"github.com/mikey/anomaly-classifier/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container.
// configFile overrides the default config search path when set.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		if configFile != "" {
			return config.NewFromFile(configFile)
		}
		return config.New()
	}); err != nil {
		return nil, err
	}

	// Register logger and its adjustable level
	if err := container.Provide(logging.NewLevel); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register model artifacts
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *artifacts.Set {
		return artifacts.Load(cfg.GetModel(), logger)
	}); err != nil {
		return nil, err
	}

	// Register exempt sender domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		domains := cfg.GetSMTP().ExemptDomains
		if len(domains) > 0 {
			logger.Info("Loaded exempt domains", zap.Strings("domains", domains))
		}
		return whitelist.NewChecker(domains, logger)
	}); err != nil {
		return nil, err
	}

	// Register front ends
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, f *factory.FrontendFactory) ([]ports.Frontend, error) {
		serverCfg, err := cfg.GetServer()
		if err != nil {
			return nil, err
		}
		httpapi.SetMode(serverCfg.Mode)
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideShared registers the classifier and metadata components used by
// both the daemon and the CLI
func provideShared(container *dig.Container) error {
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}
	if err := container.Provide(metadata.NewExtractor); err != nil {
		return err
	}

	// Register anomaly service
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *core.AnomalyService {
		return core.NewAnomalyService(logger, cfg.GetClassifier().Workers)
	}); err != nil {
		return err
	}
	return container.Provide(func(s *core.AnomalyService) ports.RecordClassifier {
		return s
	})
}
