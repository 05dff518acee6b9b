package upload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mrusso19/picshuttle/pkg/upload/chunk"
)

// Endpoint is the server surface an Uploader needs. gallery.Client
// satisfies it.
type Endpoint interface {
	// StartSession negotiates a new upload session. The returned chunkSize is
	// authoritative: when it differs from the client's the upload plan is
	// recomputed before any chunk is sent.
	StartSession(ctx context.Context, filename string, totalChunks int, guest string) (uploadID string, chunkSize int64, err error)

	// UploadChunk transfers one chunk payload.
	UploadChunk(ctx context.Context, uploadID string, index, totalChunks int, payload []byte, compressed bool) error

	// CompleteSession finalizes the session and returns the server's
	// completion payload verbatim.
	CompleteSession(ctx context.Context, uploadID string) (json.RawMessage, error)
}

// Metrics receives upload lifecycle events. All methods must be safe on a
// nil receiver so instrumentation stays optional.
type Metrics interface {
	SessionStarted()
	SessionCompleted(duration time.Duration, bytes int64)
	SessionFailed(kind string)
	ChunkSent(bytes int64)
	ChunkRetried()
}

// ProgressSnapshot describes cumulative progress after a chunk completes.
// Snapshots are delivered in completion order; Percent never decreases and
// reaches 100 exactly when the last chunk lands.
type ProgressSnapshot struct {
	// Loaded is the number of source-file bytes transferred so far. It ends
	// at the file size regardless of compression.
	Loaded int64

	// Total is the source file size in bytes.
	Total int64

	ChunksCompleted int
	ChunksTotal     int

	// Percent is round(ChunksCompleted/ChunksTotal*100).
	Percent int
}

// ChunkOutcome reports the final fate of one chunk.
type ChunkOutcome struct {
	Index int

	// Success is false only when the chunk exhausted its retry budget.
	Success bool

	// Bytes is the raw chunk length; WireBytes is what actually crossed the
	// wire after optional compression.
	Bytes     int64
	WireBytes int64

	// Retries counts extra attempts beyond the first.
	Retries int

	Err error
}

// Result is returned by a successful Run.
type Result struct {
	UploadID string

	// Payload is the completion response body, forwarded verbatim.
	Payload json.RawMessage

	Bytes     int64
	WireBytes int64
	Chunks    int
	Duration  time.Duration
}

// Options configures an Uploader. The zero value is usable; unset fields
// fall back to sensible defaults.
type Options struct {
	// ChunkSize is the preferred chunk size in bytes. Zero means
	// chunk.DefaultSize; negative is rejected.
	ChunkSize int64

	// MaxParallelUploads bounds in-flight chunk transfers. Values <= 0 mean 4.
	MaxParallelUploads int

	// RetryAttempts is the number of extra attempts per chunk after the
	// first. Zero disables retries; negative means the default of 3.
	RetryAttempts int

	// RetryDelay is the base requeue delay. Attempt r waits
	// RetryDelay*(r+1). Values <= 0 mean 1s.
	RetryDelay time.Duration

	// Compression gzips each chunk when that makes it smaller.
	Compression bool

	// Guest identifies who is uploading; sent with start-session.
	Guest string

	// Metrics is optional instrumentation.
	Metrics Metrics
}

const (
	defaultMaxParallelUploads = 4
	defaultRetryAttempts      = 3
	defaultRetryDelay         = time.Second
)

func (o Options) withDefaults() Options {
	if o.ChunkSize == 0 {
		o.ChunkSize = chunk.DefaultSize
	}
	if o.MaxParallelUploads <= 0 {
		o.MaxParallelUploads = defaultMaxParallelUploads
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = defaultRetryAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	return o
}
