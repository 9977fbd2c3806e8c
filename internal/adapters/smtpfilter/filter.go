package smtpfilter

import (
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/core"
	"github.com/mikey/anomaly-classifier/internal/metadata"
	"github.com/mikey/anomaly-classifier/internal/ports"
	"github.com/mikey/anomaly-classifier/internal/utils"
	"github.com/mikey/anomaly-classifier/internal/whitelist"
	"go.uber.org/zap"
)

// Filter is an SMTP content filter that tags each message with its anomaly
// verdict and re-injects it into a downstream MTA
type Filter struct {
	cfg           config.SMTPConfig
	classifier    ports.RecordClassifier
	extractor     *metadata.Extractor
	whitelist     *whitelist.Checker
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	server        *smtp.Server
	addr          net.Addr
}

// Outcome is the result of processing one message
type Outcome struct {
	Summary *metadata.Summary
	Verdict core.Verdict
	Exempt  bool
	Message []byte
}

// NewFilter creates a new SMTP tagging filter
func NewFilter(
	cfg config.SMTPConfig,
	classifier ports.RecordClassifier,
	extractor *metadata.Extractor,
	checker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *Filter {
	return &Filter{
		cfg:           cfg,
		classifier:    classifier,
		extractor:     extractor,
		whitelist:     checker,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Name identifies the front end in logs
func (f *Filter) Name() string {
	return "smtp"
}

// Addr returns the bound listen address once started
func (f *Filter) Addr() string {
	if f.addr == nil {
		return ""
	}
	return f.addr.String()
}

// Start starts the SMTP server in a goroutine
func (f *Filter) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	f.addr = ln.Addr()

	f.server = smtp.NewServer(&backend{filter: f})
	f.server.Addr = f.addr.String()
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	// Recipient counts are a classification input, so the server must not cap them
	f.server.MaxRecipients = 0

	f.logger.Info("SMTP filter starting",
		zap.String("address", f.Addr()),
		zap.Bool("relay_enabled", f.cfg.Relay.Enabled),
		zap.Bool("block_anomalies", f.cfg.BlockAnomalies))

	go func() {
		if err := f.server.Serve(ln); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (f *Filter) Stop() error {
	if f.server == nil {
		return nil
	}
	if err := f.server.Close(); err != nil {
		return fmt.Errorf("failed to stop SMTP server: %w", err)
	}
	f.logger.Info("SMTP filter stopped")
	return nil
}

// Process classifies a raw message and returns it with verdict headers
// prepended. Messages from whitelisted senders are returned untouched.
func (f *Filter) Process(sender string, recipients []string, raw []byte) (*Outcome, error) {
	summary, err := f.extractor.Extract(raw, recipients)
	if err != nil {
		return nil, err
	}

	if f.whitelist.IsWhitelisted(sender) || f.whitelist.IsWhitelisted(summary.From) {
		return &Outcome{Summary: summary, Exempt: true, Message: raw}, nil
	}

	verdict, err := f.classifier.Evaluate(summary.Record())
	if err != nil {
		return nil, fmt.Errorf("failed to classify message: %w", err)
	}

	return &Outcome{
		Summary: summary,
		Verdict: verdict,
		Message: f.tag(raw, verdict, summary.Header.Get("Subject")),
	}, nil
}
