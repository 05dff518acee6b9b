package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrusso19/picshuttle/internal/bytesize"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)

	assert.Equal(t, 2*time.Minute, cfg.Server.Timeout)

	assert.Equal(t, 5*bytesize.MiB, cfg.Upload.ChunkSize)
	assert.Equal(t, 4, cfg.Upload.MaxParallelUploads)
	assert.Equal(t, 3, cfg.Upload.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Upload.RetryDelay)
	assert.False(t, cfg.Upload.Compression)

	assert.True(t, cfg.Journal.IsEnabled())
	assert.NotEmpty(t, cfg.Journal.Path)

	assert.Equal(t, 2*time.Second, cfg.Watch.SettleDelay)
	assert.Equal(t, 2, cfg.Watch.MaxConcurrentFiles)
	assert.Contains(t, cfg.Watch.Extensions, ".jpg")

	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 8716, cfg.API.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Upload.MaxParallelUploads)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
server:
  url: https://gallery.example.com
  timeout: 30s
upload:
  chunk_size: 8Mi
  max_parallel_uploads: 6
  retry_attempts: 5
  retry_delay: 2s
  compression: true
  guest: maria
watch:
  dir: /photos/inbox
  settle_delay: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level should be normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "https://gallery.example.com", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)

	assert.Equal(t, 8*bytesize.MiB, cfg.Upload.ChunkSize)
	assert.Equal(t, 6, cfg.Upload.MaxParallelUploads)
	assert.Equal(t, 5, cfg.Upload.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Upload.RetryDelay)
	assert.True(t, cfg.Upload.Compression)
	assert.Equal(t, "maria", cfg.Upload.Guest)

	assert.Equal(t, "/photos/inbox", cfg.Watch.Dir)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.SettleDelay)

	// Unset sections still get defaults
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Journal.IsEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
`)
	t.Setenv("PICSHUTTLE_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestLoad_PlainByteCount(t *testing.T) {
	path := writeConfigFile(t, `
upload:
  chunk_size: 5000000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bytesize.ByteSize(5_000_000), cfg.Upload.ChunkSize)
}

func TestLoad_InvalidChunkSize(t *testing.T) {
	path := writeConfigFile(t, `
upload:
  chunk_size: "lots"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: verbose
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_InvalidServerURL(t *testing.T) {
	path := writeConfigFile(t, `
server:
  url: "not a url"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.url")
}

func TestLoad_TooManyParallelUploads(t *testing.T) {
	path := writeConfigFile(t, `
upload:
  max_parallel_uploads: 500
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.URL = "https://gallery.example.com"
	cfg.Upload.Guest = "carla"
	cfg.Upload.ChunkSize = 8 * bytesize.MiB

	path := filepath.Join(t.TempDir(), "saved", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://gallery.example.com", loaded.Server.URL)
	assert.Equal(t, "carla", loaded.Upload.Guest)
	assert.Equal(t, 8*bytesize.MiB, loaded.Upload.ChunkSize)
}

func TestJournalConfig_IsEnabled(t *testing.T) {
	var cfg JournalConfig
	assert.True(t, cfg.IsEnabled())

	off := false
	cfg.Enabled = &off
	assert.False(t, cfg.IsEnabled())
}
