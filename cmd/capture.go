package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/pagestitch/internal/capture"
	"github.com/spf13/cobra"
)

func newCaptureCmd() *cobra.Command {
	var (
		flags      stitchFlags
		controlURL string
		browserBin string
		headful    bool
		noSandbox  bool
	)

	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Capture every image on a web page and stitch them",
		Long: `Open the page in a headless browser, scroll it to the bottom to load lazy
content, and save each distinct image to the media directory as page_<n>.png.
The saved images are then grouped by size and stitched into composites.

Images already in the media directory are overwritten by number.`,
		Example: `  # Capture with the default 10 MiB limit
  pagestitch capture https://example.com/chapter-1

  # Use an already running Chrome and 5 MiB composites
  pagestitch capture https://example.com/chapter-1 --control-url ws://127.0.0.1:9222/devtools/browser/... --max-mb 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := capture.OptionsFromConfig(cfg.Capture)
			if cmd.Flags().Changed("control-url") {
				opts.ControlURL = controlURL
			}
			if cmd.Flags().Changed("browser") {
				opts.BrowserBin = browserBin
			}
			if headful {
				opts.Headless = false
			}
			if noSandbox {
				opts.NoSandbox = true
			}

			url := args[0]
			images, err := capture.New(opts).Capture(cmd.Context(), url, cfg.MediaDir)
			if err != nil {
				if len(images) == 0 {
					return err
				}
				slog.Warn("Capture ended early; stitching the images saved so far", "error", err, "saved", len(images))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d images from %s\n", len(images), url)
			return runPipeline(cmd.Context(), cmd, cfg, url, images, flags.reportPath)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVar(&controlURL, "control-url", "", "DevTools websocket URL of a running browser")
	cmd.Flags().StringVar(&browserBin, "browser", "", "Path to the Chrome/Chromium binary to launch")
	cmd.Flags().BoolVar(&headful, "headful", false, "Show the browser window")
	cmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "Launch the browser without its sandbox (needed as root in containers)")

	return cmd
}
