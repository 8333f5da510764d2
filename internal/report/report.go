package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
	"gopkg.in/yaml.v3"
)

// Row kinds used in the parquet layout
const (
	KindSource    = "source"
	KindComposite = "composite"
	KindFailure   = "failure"
)

// Save writes a run report; the format follows the file extension
func Save(r *models.RunReport, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return writeFile(path, data)
	case ".json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return writeFile(path, append(data, '\n'))
	case ".parquet":
		return saveParquet(r, path)
	default:
		return fmt.Errorf("unsupported report format: %s (supported: .yaml, .json, .parquet)", ext)
	}
}

// Load reads a report previously written by Save
func Load(path string) (*models.RunReport, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".parquet" {
		return loadParquet(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r models.RunReport
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &r)
	case ".json":
		err = json.Unmarshal(data, &r)
	default:
		return nil, fmt.Errorf("unsupported report format: %s (supported: .yaml, .json, .parquet)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}

	restoreErrors(&r)
	return &r, nil
}

// restoreErrors rebuilds Err from the serialized message
func restoreErrors(r *models.RunReport) {
	for i := range r.Failures {
		if r.Failures[i].Err == nil && r.Failures[i].Error != "" {
			r.Failures[i].Err = errors.New(r.Failures[i].Error)
		}
	}
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
