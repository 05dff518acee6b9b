// Package compress provides best-effort gzip compression for chunk payloads.
//
// Compression is an optimization, never a requirement: on any error, or when
// the compressed form is not smaller than the input, the original bytes are
// returned unchanged and the upload proceeds with the raw payload. A failure
// here must never fail the upload.
package compress

import (
	"bytes"

	"github.com/klauspost/compress/gzip"

	"github.com/mrusso19/picshuttle/internal/logger"
)

// Chunk compresses a chunk payload with gzip.
//
// It returns the payload to put on the wire and whether it is compressed.
// When compression fails or does not shrink the payload, the original bytes
// are returned with compressed=false.
func Chunk(data []byte) (payload []byte, compressed bool) {
	if len(data) == 0 {
		return data, false
	}

	var buf bytes.Buffer
	buf.Grow(len(data) / 2)

	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		logger.Warn("chunk compression unavailable, sending raw bytes", "error", err)
		return data, false
	}
	if _, err := w.Write(data); err != nil {
		logger.Warn("chunk compression failed, sending raw bytes", "error", err)
		return data, false
	}
	if err := w.Close(); err != nil {
		logger.Warn("chunk compression failed, sending raw bytes", "error", err)
		return data, false
	}

	if buf.Len() >= len(data) {
		// Already-compressed content (JPEG, PNG) usually lands here.
		return data, false
	}
	return buf.Bytes(), true
}
