package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/pagestitch/internal/config"
	"github.com/lehigh-university-libraries/pagestitch/internal/images"
	"github.com/lehigh-university-libraries/pagestitch/internal/pipeline"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	var flags stitchFlags

	cmd := &cobra.Command{
		Use:     "plan [media-dir]",
		Short:   "Show how images would be batched without writing anything",
		Example: `  pagestitch plan media --max-mb 5`,
		Args:    cobra.MaximumNArgs(1),
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

			batches, err := pipeline.Plan(found, cfg.SizeLimitBytes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d images, %d batches (limit %.2f MB)\n", len(found), len(batches), config.MB(cfg.SizeLimitBytes))
			for _, b := range batches {
				fmt.Fprintf(out, "  [%d] %d images, %.2f MB\n", b.Index, len(b.Images), config.MB(b.SourceBytes()))
				for _, img := range b.Images {
					fmt.Fprintf(out, "      %s  %dx%d  %d bytes\n", img.Path, img.Width, img.Height, img.ByteSize)
				}
			}
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}
