package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnomalyService is the core service for rule-based anomaly classification
type AnomalyService struct {
	logger  *zap.Logger
	workers int
}

// NewAnomalyService creates a new anomaly service. With workers <= 1 batches
// are classified sequentially.
func NewAnomalyService(logger *zap.Logger, workers int) *AnomalyService {
	if workers < 1 {
		workers = 1
	}
	return &AnomalyService{
		logger:  logger,
		workers: workers,
	}
}

// Evaluate runs the rules against a single record
func (s *AnomalyService) Evaluate(record Record) (Verdict, error) {
	features, err := record.Features()
	if err != nil {
		return Verdict{}, err
	}
	return Classify(features), nil
}

// ClassifyBatch annotates every record with its verdict. The output keeps the
// input order, and any failing record fails the whole batch.
func (s *AnomalyService) ClassifyBatch(ctx context.Context, records []Record) ([]Record, error) {
	s.warnMissingColumns(records)

	out := make([]Record, len(records))
	classify := func(i int) error {
		verdict, err := s.Evaluate(records[i])
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = records[i].Annotate(verdict)
		return nil
	}

	if s.workers == 1 || len(records) < 2 {
		for i := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := classify(i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for i := range records {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return classify(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Classified batch",
		zap.Int("records", len(records)),
		zap.Int("anomalies", countAnomalies(out)),
		zap.Int("workers", s.workers))

	return out, nil
}

// warnMissingColumns logs each feature column that some records omit
func (s *AnomalyService) warnMissingColumns(records []Record) {
	for _, name := range FeatureFields {
		missing := 0
		for _, r := range records {
			if _, ok := r[name]; !ok {
				missing++
			}
		}
		if missing > 0 {
			s.logger.Warn("Missing column in request, filled with default value",
				zap.String("column", name),
				zap.Int("records", missing))
		}
	}
}

func countAnomalies(records []Record) int {
	n := 0
	for _, r := range records {
		if a, ok := r[FieldAnomaly].(int); ok && a == 1 {
			n++
		}
	}
	return n
}
