package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/mrusso19/picshuttle/internal/bytesize"
	"github.com/mrusso19/picshuttle/internal/cli/output"
	"github.com/mrusso19/picshuttle/internal/cli/prompt"
	"github.com/mrusso19/picshuttle/internal/logger"
	"github.com/mrusso19/picshuttle/pkg/config"
	"github.com/mrusso19/picshuttle/pkg/journal"
	"github.com/mrusso19/picshuttle/pkg/manager"
	"github.com/mrusso19/picshuttle/pkg/metrics"
	"github.com/mrusso19/picshuttle/pkg/upload"
	"github.com/spf13/cobra"
)

var (
	uploadGuest     string
	uploadChunkSize string
	uploadParallel  int
	uploadCompress  bool
	uploadNoJournal bool
	uploadOutput    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload photos to the gallery server",
	Long: `Upload one or more files to the gallery server in chunks.

Each file gets its own upload session: the file is split into chunks,
transferred with bounded parallelism and automatic retries, and finalized
once every chunk has arrived. Interrupted sessions are recorded in the
local journal.

Examples:
  # Upload a single photo
  picshuttle upload IMG_0042.jpg

  # Upload a whole shoot as guest "maria"
  picshuttle upload --guest maria ~/photos/*.jpg

  # Larger chunks, gzip on the wire
  picshuttle upload --chunk-size 8Mi --compress video.mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadGuest, "guest", "g", "", "Guest name (prompted if not set)")
	uploadCmd.Flags().StringVar(&uploadChunkSize, "chunk-size", "", "Chunk size, e.g. 5Mi (default from config)")
	uploadCmd.Flags().IntVar(&uploadParallel, "parallel", 0, "Max chunk transfers in flight per file (default from config)")
	uploadCmd.Flags().BoolVar(&uploadCompress, "compress", false, "Gzip chunks when that makes them smaller")
	uploadCmd.Flags().BoolVar(&uploadNoJournal, "no-journal", false, "Do not record this session in the journal")
	uploadCmd.Flags().StringVarP(&uploadOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	format, err := output.ParseFormat(uploadOutput)
	if err != nil {
		return err
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
	if cfg.Journal.IsEnabled() && !uploadNoJournal {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer func() { _ = j.Close() }()
	}

	var progressMu sync.Mutex
	m := manager.New(client, j, manager.Options{
		Upload:             opts,
		MaxConcurrentFiles: cfg.Watch.MaxConcurrentFiles,
		OnProgress: func(path string, snap upload.ProgressSnapshot) {
			progressMu.Lock()
			fmt.Printf("%-40s %3d%% (%d/%d chunks)\n",
				filepath.Base(path), snap.Percent, snap.ChunksCompleted, snap.ChunksTotal)
			progressMu.Unlock()
		},
	})

	results := m.UploadAll(ctx, args)

	if err := printUploadResults(format, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

// buildUploadOptions merges config and command-line flags.
func buildUploadOptions(cfg *config.Config) (upload.Options, error) {
	opts := upload.Options{
		ChunkSize:          cfg.Upload.ChunkSize.Int64(),
		MaxParallelUploads: cfg.Upload.MaxParallelUploads,
		RetryAttempts:      cfg.Upload.RetryAttempts,
		RetryDelay:         cfg.Upload.RetryDelay,
		Compression:        cfg.Upload.Compression,
		Guest:              cfg.Upload.Guest,
		Metrics:            metrics.NewUploadMetrics(),
	}

	if uploadChunkSize != "" {
		size, err := bytesize.Parse(uploadChunkSize)
		if err != nil {
			return opts, fmt.Errorf("invalid --chunk-size: %w", err)
		}
		opts.ChunkSize = size.Int64()
	}
	if uploadParallel > 0 {
		opts.MaxParallelUploads = uploadParallel
	}
	if uploadCompress {
		opts.Compression = true
	}
	if uploadGuest != "" {
		opts.Guest = uploadGuest
	}
	return opts, nil
}

type uploadResultRow struct {
	File     string `json:"file" yaml:"file"`
	State    string `json:"state" yaml:"state"`
	Chunks   string `json:"chunks" yaml:"chunks"`
	Bytes    string `json:"bytes" yaml:"bytes"`
	UploadID string `json:"upload_id,omitempty" yaml:"upload_id,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func printUploadResults(format output.Format, results []manager.FileResult) error {
	rows := make([]uploadResultRow, 0, len(results))
	for _, r := range results {
		row := uploadResultRow{File: filepath.Base(r.Path), State: "completed"}
		if r.Result != nil {
			row.Chunks = strconv.Itoa(r.Result.Chunks)
			row.Bytes = bytesize.ByteSize(r.Result.Bytes).String()
			row.UploadID = r.Result.UploadID
		}
		if r.Err != nil {
			row.State = "failed"
			row.Error = r.Err.Error()
		}
		rows = append(rows, row)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, rows)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, rows)
	default:
		table := output.NewTableData("File", "State", "Chunks", "Bytes", "Upload ID", "Error")
		for _, row := range rows {
			table.AddRow(row.File, row.State, row.Chunks, row.Bytes, row.UploadID, row.Error)
		}
		return output.PrintTable(os.Stdout, table)
	}
}
