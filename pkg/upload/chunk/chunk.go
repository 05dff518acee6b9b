// Package chunk derives ordered chunk plans for chunked file uploads.
//
// A chunk is a contiguous byte range [Start, End) of the source file that is
// transferred as one unit. Splitting is pure math: the same (fileSize,
// chunkSize) pair always yields the same plan, and the plan partitions
// [0, fileSize) with no gaps or overlaps.
//
// The chunk size is negotiated with the remote endpoint at session start, so
// callers typically compute a provisional plan with the requested size and
// recompute once the authoritative size is known.
package chunk

import (
	"errors"
	"fmt"
)

// DefaultSize is the chunk size requested from the remote endpoint when the
// caller does not specify one (5 MiB).
const DefaultSize int64 = 5 * 1024 * 1024

// ErrInvalidInput is returned when the file size is negative or the chunk
// size is not positive. It is reported before any network activity.
var ErrInvalidInput = errors.New("invalid chunk input")

// Chunk is a single entry of a chunk plan.
type Chunk struct {
	// Index is the 0-based position of the chunk within the session.
	Index int

	// Start is the inclusive byte offset of the chunk in the source file.
	Start int64

	// End is the exclusive byte offset of the chunk in the source file.
	// End - Start is at most the plan's chunk size; only the last chunk
	// may be shorter.
	End int64
}

// Length returns the number of bytes covered by the chunk.
func (c Chunk) Length() int64 {
	return c.End - c.Start
}

// Count returns the number of chunks a file of fileSize bytes splits into,
// ceil(fileSize / chunkSize).
//
// Example:
//
//	Count(12_000_000, 5_000_000) → 3
//	Count(0, 5_000_000)          → 0
func Count(fileSize, chunkSize int64) (int, error) {
	if err := validate(fileSize, chunkSize); err != nil {
		return 0, err
	}
	return int((fileSize + chunkSize - 1) / chunkSize), nil
}

// Plan returns the ordered chunk sequence for a file of fileSize bytes.
//
// The returned chunks have contiguous indices starting at 0, partition
// [0, fileSize) exactly, and every chunk except possibly the last spans
// chunkSize bytes. A zero-byte file yields an empty plan.
func Plan(fileSize, chunkSize int64) ([]Chunk, error) {
	n, err := Count(fileSize, chunkSize)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := int64(i) * chunkSize
		end := min(start+chunkSize, fileSize)
		chunks = append(chunks, Chunk{Index: i, Start: start, End: end})
	}
	return chunks, nil
}

// Bounds returns the byte range [start, end) for a chunk index within a file.
// The index must come from a valid plan for the same sizes.
func Bounds(index int, fileSize, chunkSize int64) (start, end int64) {
	start = int64(index) * chunkSize
	end = min(start+chunkSize, fileSize)
	return start, end
}

func validate(fileSize, chunkSize int64) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, chunkSize)
	}
	if fileSize < 0 {
		return fmt.Errorf("%w: file size must be non-negative, got %d", ErrInvalidInput, fileSize)
	}
	return nil
}
