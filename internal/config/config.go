package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultSizeLimitBytes int64 = 10 * 1024 * 1024
	DefaultOutputDir            = "output"
	DefaultMediaDir             = "media"
	DefaultPrefix               = "stitched"
	DefaultWorkers              = 1
	DefaultWaitTimeout          = 10 * time.Second
	DefaultScrollPause          = 500 * time.Millisecond
	DefaultMaxScrolls           = 200
)

// ErrInvalid marks configuration errors
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting a run needs
type Config struct {
	SizeLimitBytes int64         `yaml:"size_limit_bytes"`
	OutputDir      string        `yaml:"output_directory"`
	MediaDir       string        `yaml:"media_directory"`
	Prefix         string        `yaml:"filename_prefix"`
	Workers        int           `yaml:"workers"`
	Capture        CaptureConfig `yaml:"capture"`
}

// CaptureConfig configures the headless browser used for acquisition
type CaptureConfig struct {
	ControlURL  string        `yaml:"control_url"`
	BrowserBin  string        `yaml:"browser_bin"`
	Headless    bool          `yaml:"headless"`
	NoSandbox   bool          `yaml:"no_sandbox"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
	ScrollPause time.Duration `yaml:"scroll_pause"`
	MaxScrolls  int           `yaml:"max_scrolls"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		SizeLimitBytes: DefaultSizeLimitBytes,
		OutputDir:      DefaultOutputDir,
		MediaDir:       DefaultMediaDir,
		Prefix:         DefaultPrefix,
		Workers:        DefaultWorkers,
		Capture: CaptureConfig{
			Headless:    true,
			WaitTimeout: DefaultWaitTimeout,
			ScrollPause: DefaultScrollPause,
			MaxScrolls:  DefaultMaxScrolls,
		},
	}
}

// Load builds a configuration from defaults, an optional YAML file and
// PAGESTITCH_* environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PAGESTITCH_SIZE_LIMIT_BYTES"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: PAGESTITCH_SIZE_LIMIT_BYTES=%q is not an integer", ErrInvalid, v)
		}
		c.SizeLimitBytes = n
	}
	if v := os.Getenv("PAGESTITCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: PAGESTITCH_WORKERS=%q is not an integer", ErrInvalid, v)
		}
		c.Workers = n
	}
	if v := os.Getenv("PAGESTITCH_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("PAGESTITCH_MEDIA_DIR"); v != "" {
		c.MediaDir = v
	}
	if v := os.Getenv("PAGESTITCH_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("PAGESTITCH_CONTROL_URL"); v != "" {
		c.Capture.ControlURL = v
	}
	if v := os.Getenv("PAGESTITCH_BROWSER_BIN"); v != "" {
		c.Capture.BrowserBin = v
	}
	return nil
}

// Validate reports the first configuration error found
func (c *Config) Validate() error {
	if c.SizeLimitBytes <= 0 {
		return fmt.Errorf("%w: size_limit_bytes must be positive, got %d", ErrInvalid, c.SizeLimitBytes)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output_directory is required", ErrInvalid)
	}
	prefix := strings.TrimSpace(c.Prefix)
	if prefix == "" {
		return fmt.Errorf("%w: filename_prefix is required", ErrInvalid)
	}
	if strings.ContainsAny(prefix, `/\`) {
		return fmt.Errorf("%w: filename_prefix %q must not contain path separators", ErrInvalid, prefix)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	return nil
}

// MB converts a byte count to mebibytes for display
func MB(bytes int64) float64 {
	return float64(bytes) / 1024 / 1024
}
