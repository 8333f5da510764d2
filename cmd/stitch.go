package cmd

import (
	"github.com/lehigh-university-libraries/pagestitch/internal/images"
	"github.com/spf13/cobra"
)

func newStitchCmd() *cobra.Command {
	var flags stitchFlags

	cmd := &cobra.Command{
		Use:   "stitch [media-dir]",
		Short: "Stitch previously captured images into composites",
		Long: `Scan a media directory for page_<n>.png files, in numeric order, and stitch
them into composites of at most the configured size limit.

Useful to re-run stitching with a different limit without capturing again.`,
		Example: `  pagestitch stitch media --output output --max-mb 5
  pagestitch stitch --workers 4 --report run.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.MediaDir = args[0]
			}

			found, err := images.Scan(cfg.MediaDir)
			if err != nil {
				return err
			}

			return runPipeline(cmd.Context(), cmd, cfg, cfg.MediaDir, found, flags.reportPath)
		},
	}

	flags.register(cmd, true)
	return cmd
}
