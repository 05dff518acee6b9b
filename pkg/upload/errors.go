package upload

import "fmt"

// FailureKind classifies terminal session failures.
//
// Transient chunk failures are retried internally and never surface as a
// SessionError; only exhausted retries become FailureChunkPermanent.
type FailureKind int

const (
	// FailureInvalidInput means the source file or chunk size was rejected
	// before any network activity.
	FailureInvalidInput FailureKind = iota

	// FailureSessionStart means the start-session request failed; no chunk
	// transfer was attempted.
	FailureSessionStart

	// FailureChunkPermanent means a chunk exhausted its retry budget.
	FailureChunkPermanent

	// FailureFinalize means the complete-session request failed.
	FailureFinalize

	// FailureCanceled means the caller's context was canceled mid-session.
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureInvalidInput:
		return "invalid_input"
	case FailureSessionStart:
		return "session_start"
	case FailureChunkPermanent:
		return "chunk_permanent"
	case FailureFinalize:
		return "finalize"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// SessionError is the single terminal error of a failed upload session.
// It carries enough context to diagnose and manually resume the upload:
// the failure kind, the chunk index when chunk-related (-1 otherwise),
// the session token when one was issued, and the underlying error.
type SessionError struct {
	Kind       FailureKind
	UploadID   string
	ChunkIndex int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	msg := fmt.Sprintf("upload %s failure: %s", e.Kind, e.Message)
	if e.ChunkIndex >= 0 {
		msg = fmt.Sprintf("%s (chunk %d)", msg, e.ChunkIndex)
	}
	if e.UploadID != "" {
		msg = fmt.Sprintf("%s (session %s)", msg, e.UploadID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}
