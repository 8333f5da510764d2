package cmd

import (
	"github.com/lehigh-university-libraries/pagestitch/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Print a saved run report",
		Long: `Load a run report written with --report (.yaml, .yml, .json or .parquet)
and print it as text, JSON or CSV.`,
		Example: `  pagestitch report run.yaml
  pagestitch report run.parquet --format csv > run.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := report.Load(args[0])
			if err != nil {
				return err
			}
			return report.Print(cmd.OutOrStdout(), r, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, csv")

	return cmd
}
