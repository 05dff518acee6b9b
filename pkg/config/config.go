package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mrusso19/picshuttle/internal/bytesize"
	"github.com/mrusso19/picshuttle/pkg/api"
)

// Config represents the picshuttle configuration.
//
// This structure captures everything the CLI needs to talk to a gallery
// server and run uploads:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - Gallery server connection
//   - Upload tuning (chunk size, parallelism, retries, compression)
//   - Journal, watch mode and metrics settings
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (PICSHUTTLE_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Server configures the gallery server connection
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Upload tunes the chunked upload pipeline
	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`

	// Journal configures the local upload journal
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`

	// Watch configures watch mode
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`

	// Cache configures the gallery folder-listing cache
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains the local observability server configuration used by
	// watch mode
	API api.APIConfig `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// 1.0 = sample all traces, 0.5 = sample 50%, 0.0 = no sampling
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// ServerConfig configures the gallery server connection.
type ServerConfig struct {
	// URL is the gallery server base URL
	// Example: https://gallery.example.com
	URL string `mapstructure:"url" validate:"omitempty,url" yaml:"url"`

	// Timeout is the per-request HTTP timeout. Chunk uploads of large
	// files over slow links need generous values.
	// Default: 2m
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// UploadConfig tunes the chunked upload pipeline.
type UploadConfig struct {
	// ChunkSize is the preferred chunk size. The server may override it
	// when the session starts.
	// Supports human-readable formats: "5Mi", "8MB", or plain byte counts.
	// Default: 5Mi
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size,omitempty"`

	// MaxParallelUploads bounds in-flight chunk transfers per file.
	// Default: 4
	MaxParallelUploads int `mapstructure:"max_parallel_uploads" validate:"omitempty,min=1,max=64" yaml:"max_parallel_uploads"`

	// RetryAttempts is the number of extra attempts per chunk after the
	// first failure.
	// Default: 3
	RetryAttempts int `mapstructure:"retry_attempts" validate:"omitempty,min=0,max=10" yaml:"retry_attempts"`

	// RetryDelay is the base requeue delay; attempt r waits RetryDelay*(r+1).
	// Default: 1s
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// Compression gzips chunks when that makes them smaller.
	// Default: false (photos are usually already compressed)
	Compression bool `mapstructure:"compression" yaml:"compression"`

	// Guest is the default guest name attached to upload sessions.
	Guest string `mapstructure:"guest" yaml:"guest,omitempty"`
}

// JournalConfig configures the local upload journal.
type JournalConfig struct {
	// Enabled controls whether sessions are journaled.
	// Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the journal database directory.
	// Default: $XDG_DATA_HOME/picshuttle/journal
	Path string `mapstructure:"path" yaml:"path"`
}

// IsEnabled returns whether the journal is enabled.
// Defaults to true if not explicitly set.
func (c *JournalConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Dir is the directory to watch for new photos.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`

	// Extensions filters which files are picked up.
	// Default: common photo and video extensions
	Extensions []string `mapstructure:"extensions" yaml:"extensions,omitempty"`

	// SettleDelay is how long a file must stay quiet before uploading.
	// Default: 2s
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`

	// MaxConcurrentFiles bounds simultaneous file uploads.
	// Default: 2
	MaxConcurrentFiles int `mapstructure:"max_concurrent_files" validate:"omitempty,min=1,max=16" yaml:"max_concurrent_files"`
}

// CacheConfig configures the gallery folder-listing cache.
type CacheConfig struct {
	// TTL is how long folder listings stay fresh.
	// Default: 5m
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// MetricsConfig configures Prometheus metrics collection.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PICSHUTTLE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the PICSHUTTLE_ prefix and underscores
	// Example: PICSHUTTLE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("PICSHUTTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/picshuttle/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use
// human-readable sizes like "5Mi", "8MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "picshuttle")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "picshuttle")
}

// getDataDir returns the data directory path for locally persisted state.
//
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "picshuttle")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".local", "share", "picshuttle")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// config init command).
func GetConfigDir() string {
	return getConfigDir()
}

// DefaultJournalPath returns the default journal database directory.
func DefaultJournalPath() string {
	return filepath.Join(getDataDir(), "journal")
}
