package stitcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
	"golang.org/x/sync/errgroup"
)

// ComposeAll composes every batch to its indexed destination.
// With workers <= 1 batches run strictly one after another. Failures are
// collected per batch and never stop the remaining batches; once ctx is
// cancelled no new batch is started and the skipped ones are reported as
// failures. Results and failures are returned in batch order.
func (s *Stitcher) ComposeAll(ctx context.Context, batches []models.Batch, workers int) ([]models.CompositeResult, []models.BatchFailure) {
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		result *models.CompositeResult
		fail   *models.BatchFailure
	}
	outcomes := make([]outcome, len(batches))

	run := func(i int) {
		batch := batches[i]
		dest := s.Path(batch.Index)
		if err := ctx.Err(); err != nil {
			outcomes[i].fail = newFailure(batch.Index, dest, err)
			return
		}

		slog.Debug("Composing batch", "batch", batch.Index, "images", len(batch.Images), "source_bytes", batch.SourceBytes())
		result, err := s.Compose(batch, dest)
		if err != nil {
			outcomes[i].fail = failureFromError(batch.Index, dest, err)
			slog.Error("Batch failed", "batch", batch.Index, "path", outcomes[i].fail.Path, "error", err)
			return
		}
		outcomes[i].result = &result
	}

	if workers == 1 {
		for i := range batches {
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i := range batches {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	var results []models.CompositeResult
	var failures []models.BatchFailure
	for _, o := range outcomes {
		if o.result != nil {
			results = append(results, *o.result)
		}
		if o.fail != nil {
			failures = append(failures, *o.fail)
		}
	}
	return results, failures
}

func newFailure(batch int, path string, err error) *models.BatchFailure {
	return &models.BatchFailure{Batch: batch, Path: path, Err: err, Error: err.Error()}
}

func failureFromError(batch int, dest string, err error) *models.BatchFailure {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return newFailure(batch, decodeErr.Path, err)
	}
	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		return newFailure(batch, writeErr.Path, err)
	}
	return newFailure(batch, dest, err)
}
