package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/slotgrid/pkg/config"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, config.DefaultHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, config.FormatText, cfg.Logging.Format)
	assert.True(t, cfg.Telemetry.Prometheus)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.InDelta(t, 1.0, cfg.Telemetry.SampleRatio, 0)
	assert.Equal(t, config.DefaultRenderTitle, cfg.Render.Title)
	assert.True(t, cfg.Render.Color)
	assert.Empty(t, cfg.Board.Preload)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"port_zero", func(c *config.Config) { c.Server.Port = 0 }, config.ErrInvalidPort},
		{"port_too_big", func(c *config.Config) { c.Server.Port = 70000 }, config.ErrInvalidPort},
		{"timeout", func(c *config.Config) { c.Server.WriteTimeout = -time.Second }, config.ErrInvalidTimeout},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, config.ErrInvalidLogLevel},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
		{"ratio", func(c *config.Config) { c.Telemetry.SampleRatio = 1.5 }, config.ErrInvalidSampleRatio},
		{"render", func(c *config.Config) { c.Render.RowHeight = 0 }, config.ErrInvalidRenderSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)

			require.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.Port = -1
	cfg.Logging.Format = "yaml"

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidPort)
	require.ErrorIs(t, err, config.ErrInvalidLogFormat)
}

func TestValidate_LevelCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Level = "DEBUG"

	assert.NoError(t, cfg.Validate())
}
