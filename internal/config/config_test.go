package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:6040/frames", cfg.Capture.Endpoint)
	assert.Equal(t, "127.0.0.1:6041", cfg.Publish.Address)
	assert.Equal(t, "/ws", cfg.Publish.Path)
	assert.Equal(t, 100*time.Millisecond, cfg.Meter.SnapshotInterval)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:6040/frames", cfg.Capture.Endpoint)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
capture:
  endpoint: ws://relay.local:7000/frames
meter:
  snapshot_interval: 250ms
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://relay.local:7000/frames", cfg.Capture.Endpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.Meter.SnapshotInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1:6041", cfg.Publish.Address)
}

func TestLoadDatabaseEnabledRequiresDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("METER_PUBLISH_ADDRESS", "0.0.0.0:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Publish.Address)
}
