package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	Info("upload started", "filename", "photo.jpg", "chunks", 3)

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("Output missing level: %q", out)
	}
	if !strings.Contains(out, "upload started") {
		t.Errorf("Output missing message: %q", out)
	}
	if !strings.Contains(out, "filename=photo.jpg") {
		t.Errorf("Output missing attr: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")
	defer InitWithWriter(&buf, "INFO", "text")

	Info("chunk uploaded", "index", 2)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not valid JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "chunk uploaded" {
		t.Errorf("msg = %v, want %q", record["msg"], "chunk uploaded")
	}
	if record["index"] != float64(2) {
		t.Errorf("index = %v, want 2", record["index"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")
	defer SetLevel("INFO")

	Debug("should be dropped")
	Info("should be dropped too")
	Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Low-level records leaked through: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("Warn record missing: %q", out)
	}
}

func TestSetLevelInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	// Invalid levels are ignored; INFO still passes.
	SetLevel("VERBOSE")
	Info("still logged")

	if !strings.Contains(buf.String(), "still logged") {
		t.Errorf("Invalid SetLevel changed the effective level")
	}
}
