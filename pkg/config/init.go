package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration template written by
// InitConfig. Every value shown is the default.
const sampleConfig = `# PicShuttle Configuration File
#
# All settings can be overridden with environment variables:
#   PICSHUTTLE_<SECTION>_<KEY>  (underscores for nested keys)
# e.g. PICSHUTTLE_LOGGING_LEVEL=DEBUG

logging:
  # DEBUG, INFO, WARN or ERROR
  level: INFO
  # text or json
  format: text
  # stdout, stderr or a file path
  output: stdout

server:
  # Base URL of the gallery server, e.g. https://gallery.example.com
  url: ""
  # Per-request HTTP timeout
  timeout: 2m

upload:
  # Preferred chunk size; the server may override it per session.
  # Accepts plain bytes or human-readable sizes (5Mi, 8Mi, ...)
  chunk_size: 5Mi
  # Chunk transfers in flight per file
  max_parallel_uploads: 4
  # Extra attempts per chunk after the first failure
  retry_attempts: 3
  # Base retry delay; attempt r waits retry_delay * (r+1)
  retry_delay: 1s
  # Gzip chunks when that makes them smaller
  compression: false
  # Default guest name sent with every upload
  guest: ""

journal:
  # Record upload sessions in a local database
  enabled: true
  # path: defaults to $XDG_DATA_HOME/picshuttle/journal

watch:
  # Directory to watch with "picshuttle watch" (can also be given as an argument)
  dir: ""
  # How long a file must stay quiet before it is uploaded
  settle_delay: 2s
  # Files uploading simultaneously in watch mode
  max_concurrent_files: 2

telemetry:
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0

metrics:
  enabled: false

api:
  # Local status API, served in watch mode
  enabled: true
  port: 8716
`

// InitConfig writes the sample configuration file to the default location.
// Returns the path it wrote. Fails if the file already exists unless force
// is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes the sample configuration file to the given path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
