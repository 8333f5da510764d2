package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/pagestitch/internal/config"
	"github.com/lehigh-university-libraries/pagestitch/internal/models"
	"github.com/lehigh-university-libraries/pagestitch/internal/pipeline"
	"github.com/lehigh-university-libraries/pagestitch/internal/report"
	"github.com/spf13/cobra"
)

// stitchFlags are shared by every command that batches images
type stitchFlags struct {
	mediaDir   string
	outputDir  string
	prefix     string
	maxBytes   int64
	maxMB      float64
	workers    int
	reportPath string
}

func (f *stitchFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVar(&f.mediaDir, "media", config.DefaultMediaDir, "Directory holding the page_<n>.png source images")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", config.DefaultSizeLimitBytes, "Size limit per composite, in source bytes")
	cmd.Flags().Float64Var(&f.maxMB, "max-mb", 0, "Size limit per composite in MiB (overrides --max-bytes)")
	cmd.MarkFlagsMutuallyExclusive("max-bytes", "max-mb")
	if !withOutput {
		return
	}
	cmd.Flags().StringVar(&f.outputDir, "output", config.DefaultOutputDir, "Directory for stitched composites (created if absent)")
	cmd.Flags().StringVar(&f.prefix, "prefix", config.DefaultPrefix, "Filename prefix for composites")
	cmd.Flags().IntVar(&f.workers, "workers", config.DefaultWorkers, "Number of batches stitched concurrently")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "Write a run report (.yaml, .json or .parquet)")
}

// loadConfig merges defaults, config file, environment and explicitly set flags
func (f *stitchFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("media") {
		cfg.MediaDir = f.mediaDir
	}
	if flags.Changed("max-bytes") {
		cfg.SizeLimitBytes = f.maxBytes
	}
	if flags.Changed("max-mb") {
		cfg.SizeLimitBytes = int64(f.maxMB * 1024 * 1024)
	}
	if flags.Changed("output") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("prefix") {
		cfg.Prefix = f.prefix
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runPipeline stitches images, prints a summary and saves the optional report.
// It returns an error when any batch failed so the process exits non-zero.
func runPipeline(ctx context.Context, cmd *cobra.Command, cfg *config.Config, source string, images []models.ImageDescriptor, reportPath string) error {
	out := cmd.OutOrStdout()

	if len(images) == 0 {
		fmt.Fprintln(out, "No images extracted")
	}

	result, err := pipeline.Run(ctx, pipeline.OptionsFromConfig(cfg, source), images)
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := report.Save(result, reportPath); err != nil {
			return err
		}
		slog.Info("Run report saved", "path", reportPath)
	}

	if len(images) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\nFinished. Total %d stitched images in '%s'.\n", len(result.Composites), cfg.OutputDir)
	if len(result.Failures) > 0 {
		for _, f := range result.Failures {
			fmt.Fprintf(out, "  batch %d failed: %s\n", f.Batch, f.Error)
		}
		return fmt.Errorf("%d of %d batches failed", len(result.Failures), len(result.Failures)+len(result.Composites))
	}
	return nil
}
