package config

import "time"

// Server defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = FormatText
)

// Telemetry defaults.
const (
	DefaultSampleRatio = 1.0
	DefaultPrometheus  = true
)

// Render defaults.
const (
	DefaultRenderTitle  = "Schedule"
	DefaultRenderColor  = true
	DefaultChartWidth   = 1200
	DefaultRowHeight    = 40
	DefaultMaxGridWidth = 120
)
