package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(10*1024*1024), cfg.SizeLimitBytes)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "media", cfg.MediaDir)
	assert.Equal(t, "stitched", cfg.Prefix)
	assert.Equal(t, 1, cfg.Workers)
	assert.True(t, cfg.Capture.Headless)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagestitch.yaml")
	data := `size_limit_bytes: 2048
output_directory: composites
filename_prefix: chapter
capture:
  headless: false
  wait_timeout: 3s
  max_scrolls: 12
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(2048), cfg.SizeLimitBytes)
	assert.Equal(t, "composites", cfg.OutputDir)
	assert.Equal(t, "chapter", cfg.Prefix)
	// Unset keys keep their defaults.
	assert.Equal(t, "media", cfg.MediaDir)
	assert.Equal(t, DefaultScrollPause, cfg.Capture.ScrollPause)
	assert.False(t, cfg.Capture.Headless)
	assert.Equal(t, 3*time.Second, cfg.Capture.WaitTimeout)
	assert.Equal(t, 12, cfg.Capture.MaxScrolls)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size_limit_bytes: [oops"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagestitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size_limit_bytes: 2048\nfilename_prefix: file\n"), 0644))

	t.Setenv("PAGESTITCH_SIZE_LIMIT_BYTES", "4096")
	t.Setenv("PAGESTITCH_PREFIX", "env")
	t.Setenv("PAGESTITCH_WORKERS", "3")
	t.Setenv("PAGESTITCH_CONTROL_URL", "ws://127.0.0.1:9222/devtools/browser/x")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), cfg.SizeLimitBytes)
	assert.Equal(t, "env", cfg.Prefix)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", cfg.Capture.ControlURL)
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("PAGESTITCH_SIZE_LIMIT_BYTES", "ten")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero limit", mutate: func(c *Config) { c.SizeLimitBytes = 0 }},
		{name: "negative limit", mutate: func(c *Config) { c.SizeLimitBytes = -5 }},
		{name: "no output dir", mutate: func(c *Config) { c.OutputDir = "" }},
		{name: "no prefix", mutate: func(c *Config) { c.Prefix = "  " }},
		{name: "prefix with separator", mutate: func(c *Config) { c.Prefix = "../x" }},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestMB(t *testing.T) {
	assert.InDelta(t, 1.5, MB(1536*1024), 1e-9)
}
