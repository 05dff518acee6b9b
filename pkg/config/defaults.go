package config

import (
	"strings"
	"time"

	"github.com/mrusso19/picshuttle/internal/bytesize"
	"github.com/mrusso19/picshuttle/pkg/api"
	"github.com/mrusso19/picshuttle/pkg/watcher"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	applyUploadDefaults(&cfg.Upload)
	applyJournalDefaults(&cfg.Journal)
	applyWatchDefaults(&cfg.Watch)
	applyCacheDefaults(&cfg.Cache)
	applyAPIDefaults(&cfg.API)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// applyServerDefaults sets gallery connection defaults.
// URL has no default - it must be configured or passed as a flag.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
}

// applyUploadDefaults sets upload pipeline defaults.
func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 5 * bytesize.MiB
	}
	if cfg.MaxParallelUploads == 0 {
		cfg.MaxParallelUploads = 4
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
}

// applyJournalDefaults sets journal defaults.
func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultJournalPath()
	}
}

// applyWatchDefaults sets watch mode defaults.
// Dir has no default - watch mode requires an explicit directory.
func applyWatchDefaults(cfg *WatchConfig) {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), watcher.DefaultExtensions...)
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = watcher.DefaultSettleDelay
	}
	if cfg.MaxConcurrentFiles == 0 {
		cfg.MaxConcurrentFiles = 2
	}
}

// applyCacheDefaults sets folder cache defaults.
func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}
}

// applyAPIDefaults sets observability server defaults.
func applyAPIDefaults(cfg *api.APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8716
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
