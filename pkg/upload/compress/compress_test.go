package compress

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestChunk_CompressibleData(t *testing.T) {
	data := bytes.Repeat([]byte("picshuttle"), 10_000)

	payload, compressed := Chunk(data)
	if !compressed {
		t.Fatal("Expected repetitive data to compress")
	}
	if len(payload) >= len(data) {
		t.Fatalf("Compressed payload (%d bytes) not smaller than input (%d bytes)", len(payload), len(data))
	}

	// Round-trip to verify the payload is valid gzip of the original.
	r, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Payload is not valid gzip: %v", err)
	}
	restored, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Decompression failed: %v", err)
	}
	if !bytes.Equal(restored, data) {
		t.Error("Round-tripped data differs from original")
	}
}

func TestChunk_IncompressibleData(t *testing.T) {
	data := make([]byte, 64*1024)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	payload, compressed := Chunk(data)
	if compressed {
		t.Error("Random data reported as compressed")
	}
	if !bytes.Equal(payload, data) {
		t.Error("Uncompressed payload differs from input")
	}
}

func TestChunk_Empty(t *testing.T) {
	payload, compressed := Chunk(nil)
	if compressed {
		t.Error("Empty payload reported as compressed")
	}
	if len(payload) != 0 {
		t.Errorf("Expected empty payload, got %d bytes", len(payload))
	}
}
