// Package cli classifies batches and single messages from the command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mikey/anomaly-classifier/internal/batch"
	"github.com/mikey/anomaly-classifier/internal/metadata"
	"github.com/mikey/anomaly-classifier/internal/ports"
	"github.com/mikey/anomaly-classifier/internal/whitelist"
	"go.uber.org/zap"
)

// Detector runs the classifier over local input and prints the results
type Detector struct {
	classifier ports.RecordClassifier
	extractor  *metadata.Extractor
	whitelist  *whitelist.Checker
	printer    *Printer
	logger     *zap.Logger
}

// NewDetector creates a new CLI detector
func NewDetector(
	classifier ports.RecordClassifier,
	extractor *metadata.Extractor,
	checker *whitelist.Checker,
	printer *Printer,
	logger *zap.Logger,
) *Detector {
	return &Detector{
		classifier: classifier,
		extractor:  extractor,
		whitelist:  checker,
		printer:    printer,
		logger:     logger,
	}
}

// ClassifyBatch reads a JSON batch from r, classifies it and prints the result
func (d *Detector) ClassifyBatch(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	records, err := batch.Decode(data)
	if err != nil {
		return err
	}
	d.logger.Debug("Decoded batch", zap.Int("records", len(records)))

	start := time.Now()
	annotated, err := d.classifier.ClassifyBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to classify batch: %w", err)
	}

	return d.printer.PrintBatch(annotated, time.Since(start))
}

// ClassifyMessage reads one RFC 5322 message from r, classifies its metadata
// and prints the result. Senders in an exempt domain are not classified.
func (d *Detector) ClassifyMessage(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	start := time.Now()
	summary, err := d.extractor.Extract(raw, nil)
	if err != nil {
		return err
	}

	report := summaryReport(summary)
	if d.whitelist.IsWhitelisted(summary.From) {
		report.Exempt = true
		return d.printer.PrintMessage(report, time.Since(start))
	}

	verdict, err := d.classifier.Evaluate(report.Record)
	if err != nil {
		return fmt.Errorf("failed to classify message: %w", err)
	}
	report.Verdict = verdict
	report.Record = report.Record.Annotate(verdict)

	return d.printer.PrintMessage(report, time.Since(start))
}
