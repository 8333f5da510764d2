package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/pagestitch/internal/config"
	"github.com/lehigh-university-libraries/pagestitch/internal/models"
)

// Print renders a run report as text, json or csv
func Print(w io.Writer, r *models.RunReport, format string) error {
	switch format {
	case "text", "":
		return printText(w, r)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	case "csv":
		return printCSV(w, r)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printText(w io.Writer, r *models.RunReport) error {
	p := func(format string, args ...any) {
		fmt.Fprintf(w, format, args...)
	}

	p("========================================\n")
	p("Stitch Run Report\n")
	p("========================================\n")
	p("Run ID:     %s\n", r.RunID)
	if r.Source != "" {
		p("Source:     %s\n", r.Source)
	}
	p("Started:    %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	p("Duration:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	p("Size limit: %.2f MB (%d bytes)\n", config.MB(r.SizeLimitBytes), r.SizeLimitBytes)
	p("Output:     %s (prefix %q)\n", r.OutputDir, r.Prefix)
	p("\n")
	p("Source images: %d\n", len(r.Images))
	p("Composites:    %d (%.2f MB total)\n", len(r.Composites), config.MB(r.TotalCompositeBytes()))
	p("Failed:        %d\n", len(r.Failures))

	if len(r.Composites) > 0 {
		p("\nComposites:\n")
		for _, c := range r.Composites {
			marker := ""
			if c.ByteSize > r.SizeLimitBytes {
				marker = "  (over limit)"
			}
			p("  [%d] %s  %dx%d  %.2f MB%s\n", c.Batch, c.Path, c.Width, c.Height, config.MB(c.ByteSize), marker)
		}
	}

	if len(r.Failures) > 0 {
		p("\nFailures:\n")
		for _, f := range r.Failures {
			p("  [%d] %s\n      %s\n", f.Batch, f.Path, f.Error)
		}
	}

	return nil
}

func printCSV(w io.Writer, r *models.RunReport) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Kind", "Batch", "Path", "Bytes", "Width", "Height", "Error"}); err != nil {
		return err
	}

	for _, img := range r.Images {
		row := []string{KindSource, "", img.Path, strconv.FormatInt(img.ByteSize, 10), strconv.Itoa(img.Width), strconv.Itoa(img.Height), ""}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	for _, c := range r.Composites {
		row := []string{KindComposite, strconv.Itoa(c.Batch), c.Path, strconv.FormatInt(c.ByteSize, 10), strconv.Itoa(c.Width), strconv.Itoa(c.Height), ""}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	for _, f := range r.Failures {
		row := []string{KindFailure, strconv.Itoa(f.Batch), f.Path, "", "", "", f.Error}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
