package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mrusso19/picshuttle/internal/cli/prompt"
	"github.com/mrusso19/picshuttle/internal/logger"
	"github.com/mrusso19/picshuttle/pkg/api"
	"github.com/mrusso19/picshuttle/pkg/journal"
	"github.com/mrusso19/picshuttle/pkg/manager"
	"github.com/mrusso19/picshuttle/pkg/metrics"
	"github.com/mrusso19/picshuttle/pkg/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and upload new photos",
	Long: `Watch a directory and upload every photo or video that appears in it.

Files are uploaded once they stop changing (the settle delay). While
watching, a local HTTP server exposes health probes, the upload journal
and optional Prometheus metrics.

The directory can be given as an argument or set as watch.dir in the
configuration file.

Examples:
  # Watch the camera import folder
  picshuttle watch ~/photos/inbox

  # Watch with a guest name for every upload
  picshuttle watch --guest maria ~/photos/inbox

  # Use the configured watch.dir
  picshuttle watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&uploadGuest, "guest", "g", "", "Guest name (prompted if not set)")
	watchCmd.Flags().StringVar(&uploadChunkSize, "chunk-size", "", "Chunk size, e.g. 5Mi (default from config)")
	watchCmd.Flags().BoolVar(&uploadCompress, "compress", false, "Gzip chunks when that makes them smaller")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	dir := cfg.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no directory to watch (pass one as an argument or set watch.dir)")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled")
	}

	client, err := newGalleryClient(cfg)
	if err != nil {
		return err
	}

	opts, err := buildUploadOptions(cfg)
	if err != nil {
		return err
	}
	if opts.Guest == "" {
		opts.Guest, err = prompt.InputRequired("Guest name")
		if err != nil {
			return err
		}
	}

	var j *journal.Journal
	if cfg.Journal.IsEnabled() {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer func() { _ = j.Close() }()
	}

	m := manager.New(client, j, manager.Options{
		Upload:             opts,
		MaxConcurrentFiles: cfg.Watch.MaxConcurrentFiles,
	})

	w, err := watcher.New(dir, watcher.Options{
		Extensions:  cfg.Watch.Extensions,
		SettleDelay: cfg.Watch.SettleDelay,
	})
	if err != nil {
		return err
	}

	logger.Info("Watching directory", "dir", dir, "settle_delay", cfg.Watch.SettleDelay)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Observability server (if enabled - defaults to true)
	serverDone := make(chan error, 1)
	if cfg.API.IsEnabled() {
		apiServer := api.NewServer(cfg.API, j)
		logger.Info("Observability server enabled", "port", apiServer.Port())
		go func() {
			serverDone <- apiServer.Start(ctx)
		}()
	} else {
		logger.Info("Observability server disabled")
	}

	watcherDone := make(chan error, 1)
	go func() {
		watcherDone <- w.Run(ctx)
	}()

	// Uploads run concurrently, bounded the same way batch uploads are.
	g := new(errgroup.Group)
	g.SetLimit(cfg.Watch.MaxConcurrentFiles)
	go func() {
		for path := range w.Files() {
			g.Go(func() error {
				result := m.UploadOne(ctx, path)
				if result.Err != nil {
					logger.Error("upload failed", "file", path, "error", result.Err)
				} else {
					logger.Info("upload completed", "file", path,
						"upload_id", result.Result.UploadID, "chunks", result.Result.Chunks)
				}
				return nil
			})
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Watch mode running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
	case err := <-serverDone:
		cancel()
		if err != nil {
			logger.Error("Observability server error", "error", err)
		}
	case err := <-watcherDone:
		cancel()
		if err != nil && err != context.Canceled {
			return fmt.Errorf("watcher stopped: %w", err)
		}
	}

	// Let in-flight uploads finish draining before exiting.
	_ = g.Wait()
	logger.Info("Watch mode stopped")
	return nil
}
