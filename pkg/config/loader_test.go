package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/slotgrid/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "slotgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
  read_timeout: 2s
logging:
  level: debug
  format: json
telemetry:
  otlp_endpoint: collector:4317
  otlp_insecure: true
  otlp_headers: "x-tenant=ops"
  sample_ratio: 0.25
  prometheus: false
render:
  title: Ward 7
  color: false
board:
  preload: shifts.yaml
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.FormatJSON, cfg.Logging.Format)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, "x-tenant=ops", cfg.Telemetry.OTLPHeaders)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
	assert.False(t, cfg.Telemetry.Prometheus)
	assert.Equal(t, "Ward 7", cfg.Render.Title)
	assert.False(t, cfg.Render.Color)
	assert.Equal(t, "shifts.yaml", cfg.Board.Preload)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "server:\n  port: 0\n"))
	require.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "server: [port: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SLOTGRID_SERVER_PORT", "7070")
	t.Setenv("SLOTGRID_LOGGING_LEVEL", "warn")
	t.Setenv("SLOTGRID_TELEMETRY_PROMETHEUS", "false")

	cfg, err := config.LoadConfig(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Telemetry.Prometheus)
}
