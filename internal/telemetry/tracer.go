package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for upload operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// Session attributes
	AttrUploadID    = "upload.id"
	AttrFilename    = "upload.filename"
	AttrPath        = "upload.path"
	AttrGuest       = "upload.guest"
	AttrFileSize    = "upload.file_size"
	AttrChunkSize   = "upload.chunk_size"
	AttrTotalChunks = "upload.total_chunks"
	AttrState       = "upload.state"

	// Chunk attributes
	AttrChunkIndex   = "chunk.index"
	AttrChunkBytes   = "chunk.bytes"
	AttrChunkWire    = "chunk.wire_bytes"
	AttrChunkRetries = "chunk.retries"
	AttrCompressed   = "chunk.compressed"

	// Gallery server attributes
	AttrServerURL  = "gallery.url"
	AttrHTTPStatus = "gallery.http_status"
	AttrFolder     = "gallery.folder"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	SpanUploadSession  = "upload.session"
	SpanUploadStart    = "upload.start_session"
	SpanUploadChunk    = "upload.chunk"
	SpanUploadComplete = "upload.complete_session"
	SpanListFolders    = "gallery.list_folders"
	SpanWatchBatch     = "watch.batch"
)

// UploadID returns an attribute for the server-issued session token
func UploadID(id string) attribute.KeyValue {
	return attribute.String(AttrUploadID, id)
}

// Filename returns an attribute for the uploaded file's name
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Guest returns an attribute for the uploading guest
func Guest(guest string) attribute.KeyValue {
	return attribute.String(AttrGuest, guest)
}

// FileSize returns an attribute for the source file size
func FileSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrFileSize, size)
}

// ChunkSize returns an attribute for the negotiated chunk size
func ChunkSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrChunkSize, size)
}

// TotalChunks returns an attribute for the session's chunk count
func TotalChunks(n int) attribute.KeyValue {
	return attribute.Int(AttrTotalChunks, n)
}

// ChunkIndex returns an attribute for a chunk's position
func ChunkIndex(index int) attribute.KeyValue {
	return attribute.Int(AttrChunkIndex, index)
}

// ChunkBytes returns an attribute for a chunk's raw length
func ChunkBytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrChunkBytes, n)
}

// ChunkRetries returns an attribute for a chunk's retry count
func ChunkRetries(n int) attribute.KeyValue {
	return attribute.Int(AttrChunkRetries, n)
}

// Compressed returns an attribute for the compression flag
func Compressed(on bool) attribute.KeyValue {
	return attribute.Bool(AttrCompressed, on)
}

// HTTPStatus returns an attribute for a gallery response status code
func HTTPStatus(status int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, status)
}

// StartSessionSpan starts the root span of an upload session.
// This is a convenience function that sets common attributes.
func StartSessionSpan(ctx context.Context, filename string, size int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Filename(filename),
		FileSize(size),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanUploadSession, trace.WithAttributes(allAttrs...))
}

// StartChunkSpan starts a span for a single chunk transfer.
func StartChunkSpan(ctx context.Context, uploadID string, index int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		UploadID(uploadID),
		ChunkIndex(index),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanUploadChunk, trace.WithAttributes(allAttrs...))
}
