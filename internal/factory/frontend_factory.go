package factory

import (
	"fmt"

	"github.com/mikey/anomaly-classifier/internal/adapters/httpapi"
	"github.com/mikey/anomaly-classifier/internal/adapters/smtpfilter"
	"github.com/mikey/anomaly-classifier/internal/artifacts"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/metadata"
	"github.com/mikey/anomaly-classifier/internal/ports"
	"github.com/mikey/anomaly-classifier/internal/utils"
	"github.com/mikey/anomaly-classifier/internal/whitelist"
	"go.uber.org/zap"
)

// FrontendFactory creates the network front ends based on configuration
type FrontendFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	classifier    ports.RecordClassifier
	artifacts     *artifacts.Set
	extractor     *metadata.Extractor
	whitelist     *whitelist.Checker
	textProcessor *utils.TextProcessor
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	classifier ports.RecordClassifier,
	artifactSet *artifacts.Set,
	extractor *metadata.Extractor,
	checker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:           cfg,
		logger:        logger,
		classifier:    classifier,
		artifacts:     artifactSet,
		extractor:     extractor,
		whitelist:     checker,
		textProcessor: textProcessor,
	}
}

// CreateFrontends returns the HTTP server followed by the SMTP filter when
// it is enabled
func (f *FrontendFactory) CreateFrontends() ([]ports.Frontend, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	frontends := []ports.Frontend{
		httpapi.NewServer(serverCfg, f.classifier, f.artifacts, f.logger),
	}

	smtpCfg := f.cfg.GetSMTP()
	if smtpCfg.Enabled {
		frontends = append(frontends, smtpfilter.NewFilter(
			smtpCfg,
			f.classifier,
			f.extractor,
			f.whitelist,
			f.textProcessor,
			f.logger,
		))
	}

	return frontends, nil
}
