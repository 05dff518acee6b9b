package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrusso19/picshuttle/internal/logger"
	"github.com/mrusso19/picshuttle/internal/telemetry"
	"github.com/mrusso19/picshuttle/pkg/config"
	"github.com/mrusso19/picshuttle/pkg/gallery"
)

// loadConfig loads the configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	return cfg, nil
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initTelemetry initializes OpenTelemetry tracing (if enabled) and returns
// the shutdown function.
func initTelemetry(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "picshuttle",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	shutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return shutdown, nil
}

// newGalleryClient builds the gallery client from configuration. The server
// URL must be set either in the config file or with --server.
func newGalleryClient(cfg *config.Config) (*gallery.Client, error) {
	url := strings.TrimRight(cfg.Server.URL, "/")
	if url == "" {
		return nil, fmt.Errorf("no gallery server configured (set server.url in the config or use --server)")
	}
	return gallery.New(url).
		WithTimeout(cfg.Server.Timeout).
		WithCacheTTL(cfg.Cache.TTL), nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
