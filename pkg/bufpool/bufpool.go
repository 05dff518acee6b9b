// Package bufpool provides a tiered buffer pool for chunk payloads.
//
// Every chunk attempt reads the chunk into a fresh buffer, and retries
// re-read it. Pooling those buffers keeps a long upload session from
// churning the GC with multi-megabyte allocations.
//
// Three size tiers cover the payloads that actually occur:
//   - Small buffers (64KB): tail chunks of small photos
//   - Medium buffers (1MB): typical photo tail chunks
//   - Large buffers (8MB): full-size chunks at the default and common
//     custom chunk sizes
//
// Buffers larger than the large tier are allocated directly and not pooled,
// so an unusually large custom chunk size does not pin memory indefinitely.
//
// All operations are safe for concurrent use.
package bufpool

import (
	"sync"
)

// Default buffer size classes.
// These can be overridden when creating a custom pool with NewPool.
const (
	// DefaultSmallSize covers tail chunks of small files (64KB)
	DefaultSmallSize = 64 << 10

	// DefaultMediumSize covers typical photo tail chunks (1MB)
	DefaultMediumSize = 1 << 20

	// DefaultLargeSize covers full chunks up to 8MB
	DefaultLargeSize = 8 << 20
)

// Pool manages a set of byte slice pools organized by size class.
// It automatically selects the appropriate pool based on requested size
// and provides fallback allocation for oversized requests.
type Pool struct {
	small      sync.Pool
	medium     sync.Pool
	large      sync.Pool
	smallSize  int
	mediumSize int
	largeSize  int
}

// Config holds configuration for creating a custom buffer pool.
type Config struct {
	// SmallSize is the size of small buffers (default: 64KB)
	SmallSize int

	// MediumSize is the size of medium buffers (default: 1MB)
	MediumSize int

	// LargeSize is the size of large buffers (default: 8MB)
	LargeSize int
}

// NewPool creates a new buffer pool with the given configuration.
// If config is nil, default values are used.
func NewPool(cfg *Config) *Pool {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.SmallSize <= 0 {
		cfg.SmallSize = DefaultSmallSize
	}
	if cfg.MediumSize <= 0 {
		cfg.MediumSize = DefaultMediumSize
	}
	if cfg.LargeSize <= 0 {
		cfg.LargeSize = DefaultLargeSize
	}

	p := &Pool{
		smallSize:  cfg.SmallSize,
		mediumSize: cfg.MediumSize,
		largeSize:  cfg.LargeSize,
	}

	p.small = sync.Pool{
		New: func() any {
			buf := make([]byte, p.smallSize)
			return &buf
		},
	}
	p.medium = sync.Pool{
		New: func() any {
			buf := make([]byte, p.mediumSize)
			return &buf
		},
	}
	p.large = sync.Pool{
		New: func() any {
			buf := make([]byte, p.largeSize)
			return &buf
		},
	}

	return p
}

// Get returns a byte slice of exactly the requested length, backed by a
// pooled buffer whose capacity may be larger.
//
// The caller must call Put when finished with the buffer. For sizes larger
// than the large tier, a new slice is allocated directly and will not be
// pooled.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= p.smallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= p.mediumSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= p.largeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	buf := *bufPtr
	return buf[:size]
}

// Put returns a buffer to the pool for reuse.
// The buffer must have been obtained from Get and must not be used after Put.
//
// Buffers that do not match a pool size class are left for the GC.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	switch cap(buf) {
	case p.smallSize:
		fullBuf := buf[:cap(buf)]
		p.small.Put(&fullBuf)
	case p.mediumSize:
		fullBuf := buf[:cap(buf)]
		p.medium.Put(&fullBuf)
	case p.largeSize:
		fullBuf := buf[:cap(buf)]
		p.large.Put(&fullBuf)
	}
}

// globalPool is the package-level buffer pool with default configuration.
var globalPool = NewPool(nil)

// Get returns a byte slice of the requested length from the global pool.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
