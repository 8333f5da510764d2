package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pagestitch",
		Short: "Extract images from a scrolling web page and stitch them into size-bounded composites",
		Long: `Pagestitch captures every unique image rendered on a web page, saves each one
as a PNG, and then stacks them vertically into composite PNGs.

Images are grouped in discovery order so that the source files of each
composite add up to no more than the configured size limit. An image larger
than the limit gets a composite of its own.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newCaptureCmd())
	cmd.AddCommand(newStitchCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}
