package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
	"github.com/parquet-go/parquet-go"
)

// row is the flat parquet layout: one row per source image, composite and
// failure, with the run-level fields repeated on every row.
type row struct {
	RunID          string `parquet:"run_id"`
	Source         string `parquet:"source"`
	StartedAt      int64  `parquet:"started_at_ms"`
	FinishedAt     int64  `parquet:"finished_at_ms"`
	SizeLimitBytes int64  `parquet:"size_limit_bytes"`
	OutputDir      string `parquet:"output_directory"`
	Prefix         string `parquet:"filename_prefix"`
	Kind           string `parquet:"kind"`
	Batch          int64  `parquet:"batch"`
	Path           string `parquet:"path"`
	ByteSize       int64  `parquet:"byte_size"`
	Width          int64  `parquet:"width"`
	Height         int64  `parquet:"height"`
	Error          string `parquet:"error"`
}

func saveParquet(r *models.RunReport, path string) error {
	base := row{
		RunID:          r.RunID,
		Source:         r.Source,
		StartedAt:      r.StartedAt.UnixMilli(),
		FinishedAt:     r.FinishedAt.UnixMilli(),
		SizeLimitBytes: r.SizeLimitBytes,
		OutputDir:      r.OutputDir,
		Prefix:         r.Prefix,
	}

	rows := make([]row, 0, len(r.Images)+len(r.Composites)+len(r.Failures))
	for _, img := range r.Images {
		rw := base
		rw.Kind = KindSource
		rw.Path = img.Path
		rw.ByteSize = img.ByteSize
		rw.Width = int64(img.Width)
		rw.Height = int64(img.Height)
		rows = append(rows, rw)
	}
	for _, c := range r.Composites {
		rw := base
		rw.Kind = KindComposite
		rw.Batch = int64(c.Batch)
		rw.Path = c.Path
		rw.ByteSize = c.ByteSize
		rw.Width = int64(c.Width)
		rw.Height = int64(c.Height)
		rows = append(rows, rw)
	}
	for _, f := range r.Failures {
		rw := base
		rw.Kind = KindFailure
		rw.Batch = int64(f.Batch)
		rw.Path = f.Path
		rw.Error = f.Error
		rows = append(rows, rw)
	}

	if len(rows) == 0 {
		// Keep the run metadata even when nothing was captured.
		rows = append(rows, base)
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet report: %w", err)
	}
	slog.Debug("Parquet report written", "path", path, "rows", len(rows))
	return nil
}

func loadParquet(path string) (*models.RunReport, error) {
	rows, err := parquet.ReadFile[row](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet report: %w", err)
	}

	r := &models.RunReport{}
	for i, rw := range rows {
		if i == 0 {
			r.RunID = rw.RunID
			r.Source = rw.Source
			r.StartedAt = time.UnixMilli(rw.StartedAt).UTC()
			r.FinishedAt = time.UnixMilli(rw.FinishedAt).UTC()
			r.SizeLimitBytes = rw.SizeLimitBytes
			r.OutputDir = rw.OutputDir
			r.Prefix = rw.Prefix
		}

		switch rw.Kind {
		case KindSource:
			r.Images = append(r.Images, models.ImageDescriptor{
				Path:     rw.Path,
				ByteSize: rw.ByteSize,
				Width:    int(rw.Width),
				Height:   int(rw.Height),
			})
		case KindComposite:
			r.Composites = append(r.Composites, models.CompositeResult{
				Batch:    int(rw.Batch),
				Path:     rw.Path,
				ByteSize: rw.ByteSize,
				Width:    int(rw.Width),
				Height:   int(rw.Height),
			})
		case KindFailure:
			r.Failures = append(r.Failures, models.BatchFailure{
				Batch: int(rw.Batch),
				Path:  rw.Path,
				Error: rw.Error,
			})
		}
	}

	restoreErrors(r)
	return r, nil
}
