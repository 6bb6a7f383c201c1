// Package config loads slotgrid configuration from defaults, an optional
// YAML file and SLOTGRID_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidTimeout     = errors.New("server timeouts must be positive")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidRenderSize  = errors.New("render dimensions must be positive")
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	maxPort    = 65535
	envPrefix  = "SLOTGRID"
	configName = ".slotgrid"
)

var validLevels = []string{"debug", "info", "warn", "error"}

// Config holds all slotgrid configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Render    RenderConfig    `mapstructure:"render"`
	Board     BoardConfig     `mapstructure:"board"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry settings. An empty OTLPEndpoint
// disables export.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// RenderConfig holds output settings for the text and HTML renderers.
type RenderConfig struct {
	Title      string `mapstructure:"title"`
	ChartWidth int    `mapstructure:"chart_width"`
	RowHeight  int    `mapstructure:"row_height"`
	MaxWidth   int    `mapstructure:"max_width"`
	Color      bool   `mapstructure:"color"`
}

// BoardConfig holds settings of the served schedule board.
type BoardConfig struct {
	// Preload is a schedule document loaded into the board at startup.
	Preload string `mapstructure:"preload"`
}

// LoadConfig loads configuration. With an empty configPath it looks for
// .slotgrid.yaml in the working directory and then in $HOME; a missing file
// is not an error. An explicit path must exist.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults are static and always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	viperCfg.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.prometheus", DefaultPrometheus)
	viperCfg.SetDefault("telemetry.trace_verbose", false)
	viperCfg.SetDefault("telemetry.debug_trace", false)

	viperCfg.SetDefault("render.title", DefaultRenderTitle)
	viperCfg.SetDefault("render.color", DefaultRenderColor)
	viperCfg.SetDefault("render.chart_width", DefaultChartWidth)
	viperCfg.SetDefault("render.row_height", DefaultRowHeight)
	viperCfg.SetDefault("render.max_width", DefaultMaxGridWidth)

	viperCfg.SetDefault("board.preload", "")
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port))
	}

	for name, d := range map[string]time.Duration{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"idle_timeout":     c.Server.IdleTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s=%s", ErrInvalidTimeout, name, d))
		}
	}

	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level))
	}

	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio))
	}

	if c.Render.ChartWidth <= 0 || c.Render.RowHeight <= 0 || c.Render.MaxWidth <= 0 {
		errs = append(errs, fmt.Errorf("%w: width=%d row_height=%d max_width=%d",
			ErrInvalidRenderSize, c.Render.ChartWidth, c.Render.RowHeight, c.Render.MaxWidth))
	}

	return errors.Join(errs...)
}
