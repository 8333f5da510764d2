package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pagestitch/internal/batcher"
	"github.com/lehigh-university-libraries/pagestitch/internal/config"
	"github.com/lehigh-university-libraries/pagestitch/internal/models"
	"github.com/lehigh-university-libraries/pagestitch/internal/stitcher"
)

// Options configures one pipeline run
type Options struct {
	SizeLimitBytes int64
	OutputDir      string
	Prefix         string
	Workers        int
	// Source is recorded in the report (page URL or media directory).
	Source string
}

// OptionsFromConfig maps a loaded configuration onto run options
func OptionsFromConfig(cfg *config.Config, source string) Options {
	return Options{
		SizeLimitBytes: cfg.SizeLimitBytes,
		OutputDir:      cfg.OutputDir,
		Prefix:         cfg.Prefix,
		Workers:        cfg.Workers,
		Source:         source,
	}
}

// Plan partitions images without touching the filesystem
func Plan(images []models.ImageDescriptor, limit int64) ([]models.Batch, error) {
	return batcher.Partition(images, limit)
}

// Run batches images and writes one composite per batch.
// Only configuration errors are returned; batch failures are recorded in
// the report and leave earlier composites in place.
func Run(ctx context.Context, opts Options, images []models.ImageDescriptor) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:          uuid.NewString(),
		Source:         opts.Source,
		StartedAt:      time.Now().UTC(),
		SizeLimitBytes: opts.SizeLimitBytes,
		OutputDir:      opts.OutputDir,
		Prefix:         opts.Prefix,
		Images:         images,
	}

	batches, err := batcher.Partition(images, opts.SizeLimitBytes)
	if err != nil {
		return nil, err
	}

	if len(batches) == 0 {
		slog.Info("No images to stitch")
		if opts.OutputDir != "" {
			if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
				return nil, fmt.Errorf("%w: failed to create output directory: %v", stitcher.ErrInvalidOptions, err)
			}
		}
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	st, err := stitcher.New(stitcher.Options{OutputDir: opts.OutputDir, Prefix: opts.Prefix})
	if err != nil {
		return nil, err
	}

	slog.Info("Total batches created", "batches", len(batches), "images", len(images), "limit_mb", fmt.Sprintf("%.2f", config.MB(opts.SizeLimitBytes)))
	for _, b := range batches {
		slog.Debug("Batch planned", "batch", b.Index, "images", len(b.Images), "source_bytes", b.SourceBytes())
	}

	results, failures := st.ComposeAll(ctx, batches, opts.Workers)
	for _, r := range results {
		slog.Info("Saved composite", "path", r.Path, "size_mb", fmt.Sprintf("%.2f", config.MB(r.ByteSize)), "width", r.Width, "height", r.Height)
		if r.ByteSize > opts.SizeLimitBytes {
			// The limit is applied to source bytes; re-encoding can exceed it.
			slog.Warn("Composite exceeds size limit", "path", r.Path, "bytes", r.ByteSize, "limit", opts.SizeLimitBytes)
		}
	}

	report.Composites = results
	report.Failures = failures
	report.FinishedAt = time.Now().UTC()

	slog.Info("Finished", "composites", len(results), "failed", len(failures), "output", opts.OutputDir)
	return report, nil
}
