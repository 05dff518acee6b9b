// Package upload implements the chunked upload session: it splits a source
// file into fixed-size chunks, transfers them through a bounded worker pool
// with linear-backoff retries, and finalizes the session once every chunk
// has landed.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrusso19/picshuttle/internal/logger"
	"github.com/mrusso19/picshuttle/internal/telemetry"
	"github.com/mrusso19/picshuttle/pkg/bufpool"
	"github.com/mrusso19/picshuttle/pkg/upload/chunk"
	"github.com/mrusso19/picshuttle/pkg/upload/compress"
)

// ErrAlreadyRun is returned when Run is called on an Uploader that has
// already started. Uploaders are single-use.
var ErrAlreadyRun = errors.New("upload: session already run")

// eventBuffer sizes the progress and outcome channels. Sends never block;
// a consumer that falls this far behind loses the oldest unread events.
const eventBuffer = 4096

// Uploader drives one upload session for one file. Create it with New,
// start it with Run, and observe it through Progress and Outcomes. An
// Uploader cannot be reused after Run returns.
type Uploader struct {
	endpoint Endpoint
	path     string
	opts     Options
	metrics  Metrics

	state atomic.Int32

	progressCh chan ProgressSnapshot
	outcomesCh chan ChunkOutcome

	// Transfer bookkeeping, guarded by mu so snapshots are consistent and
	// delivered in completion order.
	mu              sync.Mutex
	completedChunks int
	loadedBytes     int64
	wireBytes       int64
	totalRetries    int
	chunksTotal     int
	fileSize        int64

	failOnce sync.Once
	failure  *SessionError

	uploadID string
}

// New returns an Uploader for the file at path. Nothing happens until Run.
func New(endpoint Endpoint, path string, opts Options) *Uploader {
	opts = opts.withDefaults()
	m := opts.Metrics
	if m == nil {
		m = noopMetrics{}
	}
	return &Uploader{
		endpoint:   endpoint,
		path:       path,
		opts:       opts,
		metrics:    m,
		progressCh: make(chan ProgressSnapshot, eventBuffer),
		outcomesCh: make(chan ChunkOutcome, eventBuffer),
	}
}

// State returns the current session state.
func (u *Uploader) State() State {
	return State(u.state.Load())
}

// Progress returns the channel of progress snapshots. It is closed when the
// session reaches a terminal state.
func (u *Uploader) Progress() <-chan ProgressSnapshot {
	return u.progressCh
}

// Outcomes returns the channel of per-chunk outcomes. It is closed when the
// session reaches a terminal state.
func (u *Uploader) Outcomes() <-chan ChunkOutcome {
	return u.outcomesCh
}

// attemptTask is one scheduled transfer of one chunk. retries counts the
// attempts already consumed.
type attemptTask struct {
	chunk   chunk.Chunk
	retries int
}

// Run executes the session to completion and returns the finalization
// result, or a *SessionError describing the single terminal failure.
func (u *Uploader) Run(ctx context.Context) (*Result, error) {
	if !u.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return nil, ErrAlreadyRun
	}
	defer func() {
		close(u.progressCh)
		close(u.outcomesCh)
	}()

	started := time.Now()

	fi, err := os.Stat(u.path)
	if err != nil {
		return u.fail(FailureInvalidInput, -1, "cannot stat source file", err)
	}
	if fi.IsDir() {
		return u.fail(FailureInvalidInput, -1, "source is a directory", nil)
	}
	size := fi.Size()

	plan, err := chunk.Plan(size, u.opts.ChunkSize)
	if err != nil {
		return u.fail(FailureInvalidInput, -1, "cannot plan chunks", err)
	}

	filename := filepath.Base(u.path)
	uploadID, serverChunkSize, err := u.endpoint.StartSession(ctx, filename, len(plan), u.opts.Guest)
	if err != nil {
		return u.fail(FailureSessionStart, -1, "start session", err)
	}
	u.uploadID = uploadID
	u.metrics.SessionStarted()

	// The server's chunk size wins. Replan before anything is sent so every
	// chunk request carries the authoritative total.
	if serverChunkSize > 0 && serverChunkSize != u.opts.ChunkSize {
		logger.Debug("server overrode chunk size",
			"requested", u.opts.ChunkSize, "granted", serverChunkSize)
		plan, err = chunk.Plan(size, serverChunkSize)
		if err != nil {
			return u.fail(FailureInvalidInput, -1, "cannot replan chunks", err)
		}
	}

	chunkSize := u.opts.ChunkSize
	if serverChunkSize > 0 {
		chunkSize = serverChunkSize
	}
	telemetry.SetAttributes(ctx,
		telemetry.UploadID(uploadID),
		telemetry.ChunkSize(chunkSize),
		telemetry.TotalChunks(len(plan)))

	u.mu.Lock()
	u.chunksTotal = len(plan)
	u.fileSize = size
	u.mu.Unlock()

	u.state.Store(int32(StateTransferring))
	logger.Info("upload session started",
		"file", filename, "upload_id", uploadID,
		"size", size, "chunks", len(plan))

	if len(plan) > 0 {
		if err := u.transfer(ctx, plan); err != nil {
			u.state.Store(int32(StateFailed))
			u.metrics.SessionFailed(u.failure.Kind.String())
			logger.Error("upload session failed", "error", u.failure)
			return nil, err
		}
	}

	u.state.Store(int32(StateFinalizing))
	payload, err := u.endpoint.CompleteSession(ctx, uploadID)
	if err != nil {
		return u.fail(FailureFinalize, -1, "complete session", err)
	}
	u.state.Store(int32(StateCompleted))

	u.mu.Lock()
	res := &Result{
		UploadID:  uploadID,
		Payload:   payload,
		Bytes:     u.loadedBytes,
		WireBytes: u.wireBytes,
		Chunks:    u.completedChunks,
		Duration:  time.Since(started),
	}
	u.mu.Unlock()

	u.metrics.SessionCompleted(res.Duration, res.Bytes)
	logger.Info("upload session completed",
		"upload_id", uploadID, "chunks", res.Chunks,
		"bytes", res.Bytes, "duration", res.Duration)
	return res, nil
}

// transfer runs the worker pool until every chunk succeeds or the session
// fails. It returns nil only when all chunks landed.
func (u *Uploader) transfer(ctx context.Context, plan []chunk.Chunk) error {
	f, err := os.Open(u.path)
	if err != nil {
		u.recordFailure(FailureInvalidInput, -1, "cannot open source file", err)
		return u.failure
	}
	defer f.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := len(plan)

	pool := &transferPool{
		fresh:   make(chan attemptTask, total),
		retries: make(chan attemptTask, total),
		allDone: make(chan struct{}),
	}
	pool.remaining.Store(int32(total))

	for _, c := range plan {
		pool.fresh <- attemptTask{chunk: c}
	}

	workers := u.opts.MaxParallelUploads
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			u.work(runCtx, cancel, f, pool)
		}()
	}
	wg.Wait()

	if u.failure != nil {
		return u.failure
	}
	if err := ctx.Err(); err != nil {
		u.recordFailure(FailureCanceled, -1, "session canceled", err)
		return u.failure
	}
	return nil
}

// transferPool holds the queues shared by the workers. Retried tasks go to
// their own channel so they are picked up ahead of fresh work.
type transferPool struct {
	fresh     chan attemptTask
	retries   chan attemptTask
	allDone   chan struct{}
	remaining atomic.Int32
}

// resolve marks one chunk as terminally resolved and releases the workers
// once nothing is left.
func (p *transferPool) resolve() {
	if p.remaining.Add(-1) == 0 {
		close(p.allDone)
	}
}

// work is one pool worker. Retries take priority over fresh chunks: the
// non-blocking check runs first so a requeued chunk never waits behind the
// fresh backlog.
func (u *Uploader) work(ctx context.Context, cancel context.CancelFunc, f *os.File, pool *transferPool) {
	for {
		select {
		case task := <-pool.retries:
			u.attempt(ctx, cancel, f, pool, task)
			continue
		default:
		}

		select {
		case task := <-pool.retries:
			u.attempt(ctx, cancel, f, pool, task)
		case task := <-pool.fresh:
			u.attempt(ctx, cancel, f, pool, task)
		case <-pool.allDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

// attempt performs one transfer of one chunk and routes the result: success
// is recorded, a transient failure is requeued after a linear delay, and an
// exhausted chunk fails the whole session.
func (u *Uploader) attempt(ctx context.Context, cancel context.CancelFunc, f *os.File, pool *transferPool, task attemptTask) {
	c := task.chunk

	spanCtx, span := telemetry.StartChunkSpan(ctx, u.uploadID, c.Index,
		telemetry.ChunkBytes(c.Length()),
		telemetry.ChunkRetries(task.retries))
	defer span.End()

	buf := bufpool.Get(int(c.Length()))
	defer bufpool.Put(buf)
	if n, err := f.ReadAt(buf, c.Start); n < len(buf) {
		if err == nil || err == io.EOF {
			err = fmt.Errorf("short read: %d of %d bytes", n, len(buf))
		}
		telemetry.RecordError(spanCtx, err)
		u.routeFailure(ctx, cancel, pool, task, err)
		return
	}

	payload, compressed := buf, false
	if u.opts.Compression {
		payload, compressed = compress.Chunk(buf)
	}
	telemetry.SetAttributes(spanCtx, telemetry.Compressed(compressed))

	err := u.endpoint.UploadChunk(spanCtx, u.uploadID, c.Index, u.totalChunks(), payload, compressed)
	if err != nil {
		telemetry.RecordError(spanCtx, err)
		u.routeFailure(ctx, cancel, pool, task, err)
		return
	}

	u.metrics.ChunkSent(int64(len(payload)))
	u.recordSuccess(task, int64(len(buf)), int64(len(payload)))
	pool.resolve()
}

// routeFailure decides between requeue and permanent failure.
func (u *Uploader) routeFailure(ctx context.Context, cancel context.CancelFunc, pool *transferPool, task attemptTask, err error) {
	if ctx.Err() != nil {
		return
	}

	if task.retries < u.opts.RetryAttempts {
		u.metrics.ChunkRetried()
		next := attemptTask{chunk: task.chunk, retries: task.retries + 1}
		delay := u.opts.RetryDelay * time.Duration(task.retries+1)
		logger.Warn("chunk attempt failed, requeueing",
			"upload_id", u.uploadID, "chunk", task.chunk.Index,
			"attempt", task.retries+1, "delay", delay, "error", err)
		time.AfterFunc(delay, func() {
			select {
			case pool.retries <- next:
			case <-ctx.Done():
			}
		})
		return
	}

	logger.Error("chunk failed permanently",
		"upload_id", u.uploadID, "chunk", task.chunk.Index,
		"attempts", task.retries+1, "error", err)
	u.emitOutcome(ChunkOutcome{
		Index:   task.chunk.Index,
		Success: false,
		Bytes:   task.chunk.Length(),
		Retries: task.retries,
		Err:     err,
	})
	u.recordFailure(FailureChunkPermanent, task.chunk.Index,
		fmt.Sprintf("chunk failed after %d attempts", task.retries+1), err)
	cancel()
	pool.resolve()
}

// recordSuccess updates the counters and emits the progress snapshot and
// chunk outcome under the same lock so ordering matches completion order.
func (u *Uploader) recordSuccess(task attemptTask, rawBytes, wireBytes int64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.completedChunks++
	u.loadedBytes += rawBytes
	u.wireBytes += wireBytes
	u.totalRetries += task.retries

	snap := ProgressSnapshot{
		Loaded:          u.loadedBytes,
		Total:           u.fileSize,
		ChunksCompleted: u.completedChunks,
		ChunksTotal:     u.chunksTotal,
		Percent:         int(math.Round(float64(u.completedChunks) / float64(u.chunksTotal) * 100)),
	}
	select {
	case u.progressCh <- snap:
	default:
	}

	u.emitOutcomeLocked(ChunkOutcome{
		Index:     task.chunk.Index,
		Success:   true,
		Bytes:     rawBytes,
		WireBytes: wireBytes,
		Retries:   task.retries,
	})
}

func (u *Uploader) emitOutcome(o ChunkOutcome) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.emitOutcomeLocked(o)
}

func (u *Uploader) emitOutcomeLocked(o ChunkOutcome) {
	select {
	case u.outcomesCh <- o:
	default:
	}
}

// recordFailure sets the session's terminal error. Only the first failure
// wins; later ones are side effects of the cancellation it triggers.
func (u *Uploader) recordFailure(kind FailureKind, chunkIndex int, msg string, err error) {
	u.failOnce.Do(func() {
		u.failure = &SessionError{
			Kind:       kind,
			UploadID:   u.uploadID,
			ChunkIndex: chunkIndex,
			Message:    msg,
			Err:        err,
		}
	})
}

// fail records the terminal error, transitions to Failed and returns it.
func (u *Uploader) fail(kind FailureKind, chunkIndex int, msg string, err error) (*Result, error) {
	u.recordFailure(kind, chunkIndex, msg, err)
	u.state.Store(int32(StateFailed))
	u.metrics.SessionFailed(u.failure.Kind.String())
	logger.Error("upload session failed", "error", u.failure)
	return nil, u.failure
}

func (u *Uploader) totalChunks() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.chunksTotal
}

type noopMetrics struct{}

func (noopMetrics) SessionStarted()                       {}
func (noopMetrics) SessionCompleted(time.Duration, int64) {}
func (noopMetrics) SessionFailed(string)                  {}
func (noopMetrics) ChunkSent(int64)                       {}
func (noopMetrics) ChunkRetried()                         {}
