// Package config loads runtime settings from environment variables. Values
// are validated on startup so misconfiguration fails before any file is read.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	Logging LoggingConfig
	Output  OutputConfig
	Server  ServerConfig
	Upload  UploadConfig
	Storage StorageConfig
	History HistoryConfig
	Metrics MetricsConfig
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// OutputConfig controls how converted files are written.
type OutputConfig struct {
	// LineEnding is native, lf or crlf (default: native)
	LineEnding string `env:"OUTPUT_LINE_ENDING" default:"native"`
}

// ServerConfig holds HTTP settings for serve mode.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a single conversion request (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig limits files posted to serve mode.
type UploadConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of conversions run at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a free slot (default: 10s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"10s"`
}

// StorageConfig configures s3:// locations.
type StorageConfig struct {
	Region string `env:"S3_REGION" envAlt:"AWS_REGION"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO
	Endpoint string `env:"S3_ENDPOINT"`
}

// HistoryConfig enables run history when URL is set.
type HistoryConfig struct {
	URL             string        `env:"HISTORY_DATABASE_URL" envAlt:"DATABASE_URL"`
	MaxConns        int           `env:"HISTORY_DB_MAX_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"HISTORY_DB_MAX_CONN_LIFETIME" default:"1h"`
}

// Enabled reports whether runs should be recorded.
func (h HistoryConfig) Enabled() bool { return h.URL != "" }

// MetricsConfig controls pushing CLI run metrics.
type MetricsConfig struct {
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `env:"METRICS_JOB" default:"instructcsv"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
