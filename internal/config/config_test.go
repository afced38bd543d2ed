package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 8, cfg.Gallery.ProbeConcurrency)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenLifespan)
	assert.Equal(t, []string{"/dev/video0"}, cfg.Capture.VideoDevices)
	assert.Equal(t, 5*time.Minute, cfg.Capture.SessionIdleTimeout)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
app:
  port: "9000"
api:
  base_url: http://api.local
  timeout: 5s
gallery:
  probe_concurrency: 3
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("APP_PORT", "9100")
	t.Setenv("CAPTURE_SESSION_IDLE_TIMEOUT", "90s")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "http://api.local", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.Gallery.ProbeConcurrency)
	assert.Equal(t, 90*time.Second, cfg.Capture.SessionIdleTimeout)
}

func TestGalleryLocation(t *testing.T) {
	var cfg Config
	loc, err := cfg.GalleryLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Gallery.Timezone = "UTC"
	loc, err = cfg.GalleryLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	cfg.Gallery.Timezone = "Mars/Olympus"
	_, err = cfg.GalleryLocation()
	assert.Error(t, err)
}
