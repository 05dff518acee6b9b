// Package manager runs upload sessions for batches of files, bounding how
// many files transfer at once and journaling every session's fate.
package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mrusso19/picshuttle/internal/logger"
	"github.com/mrusso19/picshuttle/internal/telemetry"
	"github.com/mrusso19/picshuttle/pkg/journal"
	"github.com/mrusso19/picshuttle/pkg/upload"
)

// DefaultMaxConcurrentFiles bounds how many files upload simultaneously.
// Each file additionally runs its own chunk worker pool.
const DefaultMaxConcurrentFiles = 2

// Options configures a Manager.
type Options struct {
	// Upload is applied to every session.
	Upload upload.Options

	// MaxConcurrentFiles bounds simultaneous file sessions. Values <= 0 mean
	// DefaultMaxConcurrentFiles.
	MaxConcurrentFiles int

	// OnProgress, when set, is called for every progress snapshot of every
	// file. Calls for different files may interleave.
	OnProgress func(path string, snap upload.ProgressSnapshot)
}

// FileResult is the outcome of one file's session.
type FileResult struct {
	Path    string
	LocalID string
	Result  *upload.Result
	Err     error
}

// Manager uploads batches of files. The journal may be nil, in which case
// sessions are not recorded.
type Manager struct {
	endpoint upload.Endpoint
	journal  *journal.Journal
	opts     Options
}

// New creates a Manager.
func New(endpoint upload.Endpoint, j *journal.Journal, opts Options) *Manager {
	if opts.MaxConcurrentFiles <= 0 {
		opts.MaxConcurrentFiles = DefaultMaxConcurrentFiles
	}
	return &Manager{endpoint: endpoint, journal: j, opts: opts}
}

// UploadAll uploads every path, at most MaxConcurrentFiles at a time.
// One file failing does not stop the others; each result carries its own
// error. Results are returned in input order.
func (m *Manager) UploadAll(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(m.opts.MaxConcurrentFiles)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = m.UploadOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// UploadOne runs a single file's session end to end and journals it.
func (m *Manager) UploadOne(ctx context.Context, path string) FileResult {
	localID := uuid.NewString()
	result := FileResult{Path: path, LocalID: localID}

	var size int64
	if info, statErr := os.Stat(path); statErr == nil {
		size = info.Size()
	}

	ctx, span := telemetry.StartSessionSpan(ctx, filepath.Base(path), size,
		telemetry.Guest(m.opts.Upload.Guest))
	defer span.End()

	rec := &journal.Record{
		LocalID:   localID,
		Path:      path,
		Filename:  filepath.Base(path),
		Guest:     m.opts.Upload.Guest,
		Size:      size,
		State:     upload.StateStarting.String(),
		StartedAt: time.Now().UTC(),
	}
	m.journalPut(rec)

	up := upload.New(m.endpoint, path, m.opts.Upload)

	// Chunk completions feed the journal as they happen so an interrupted
	// run still shows how far each file got.
	var drained sync.WaitGroup
	drained.Add(2)
	go func() {
		defer drained.Done()
		for out := range up.Outcomes() {
			if out.Success {
				m.journalMarkChunk(localID, out.Index)
			}
		}
	}()
	go func() {
		defer drained.Done()
		for snap := range up.Progress() {
			if m.opts.OnProgress != nil {
				m.opts.OnProgress(path, snap)
			}
			logger.Debug("upload progress",
				"file", rec.Filename, "percent", snap.Percent,
				"chunks", snap.ChunksCompleted, "total_chunks", snap.ChunksTotal)
		}
	}()

	res, err := up.Run(ctx)
	drained.Wait()

	result.Result = res
	result.Err = err

	// Update the journaled record in place: MarkChunk has been appending to
	// it while the session ran.
	m.journalFinish(localID, func(rec *journal.Record) {
		rec.State = up.State().String()
		if res != nil {
			rec.UploadID = res.UploadID
			rec.TotalChunks = res.Chunks
		}
		if err != nil {
			rec.Error = err.Error()
			var serr *upload.SessionError
			if errors.As(err, &serr) && serr.UploadID != "" {
				rec.UploadID = serr.UploadID
			}
		}
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("file upload failed", "file", rec.Filename, "error", err)
	}
	if res != nil {
		telemetry.SetAttributes(ctx,
			telemetry.UploadID(res.UploadID),
			telemetry.TotalChunks(res.Chunks))
	}

	return result
}

func (m *Manager) journalPut(rec *journal.Record) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Put(rec); err != nil {
		logger.Warn("failed to journal upload", "local_id", rec.LocalID, "error", err)
	}
}

func (m *Manager) journalMarkChunk(localID string, index int) {
	if m.journal == nil {
		return
	}
	if err := m.journal.MarkChunk(localID, index); err != nil {
		logger.Warn("failed to journal chunk", "local_id", localID, "chunk", index, "error", err)
	}
}

func (m *Manager) journalFinish(localID string, update func(*journal.Record)) {
	if m.journal == nil {
		return
	}
	rec, err := m.journal.Get(localID)
	if err != nil {
		logger.Warn("failed to load journaled upload", "local_id", localID, "error", err)
		return
	}
	update(rec)
	if err := m.journal.Put(rec); err != nil {
		logger.Warn("failed to journal upload", "local_id", localID, "error", err)
	}
}
