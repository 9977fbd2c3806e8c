package ports

import (
	"context"

	"github.com/mikey/anomaly-classifier/internal/core"
)

// RecordClassifier defines the interface for rule-based record classification
type RecordClassifier interface {
	// Evaluate runs the rules against a single record
	Evaluate(record core.Record) (core.Verdict, error)

	// ClassifyBatch annotates every record in order with its verdict
	ClassifyBatch(ctx context.Context, records []core.Record) ([]core.Record, error)
}
