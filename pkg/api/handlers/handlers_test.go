package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mrusso19/picshuttle/pkg/journal"
)

func openTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["service"] != "picshuttle" {
		t.Errorf("Expected service 'picshuttle', got '%s'", data["service"])
	}
}

func TestReadiness_NoJournal_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", resp.Status)
	}

	if resp.Error != "journal not initialized" {
		t.Errorf("Expected error 'journal not initialized', got '%s'", resp.Error)
	}
}

func TestReadiness_WithJournal_ReturnsOK(t *testing.T) {
	j := openTestJournal(t)
	handler := NewHealthHandler(j)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestUploadsList(t *testing.T) {
	j := openTestJournal(t)
	rec := &journal.Record{
		LocalID:     "local-1",
		Filename:    "reception.jpg",
		TotalChunks: 3,
		State:       "completed",
		StartedAt:   time.Now().UTC(),
	}
	if err := j.Put(rec); err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}
	if err := j.MarkChunk("local-1", 0); err != nil {
		t.Fatalf("Failed to mark chunk: %v", err)
	}

	handler := NewUploadsHandler(j)
	req := httptest.NewRequest("GET", "/uploads", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Status string          `json:"status"`
		Data   []uploadSummary `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Data) != 1 {
		t.Fatalf("Expected 1 upload, got %d", len(resp.Data))
	}
	if resp.Data[0].Filename != "reception.jpg" {
		t.Errorf("Expected filename 'reception.jpg', got '%s'", resp.Data[0].Filename)
	}
	if resp.Data[0].CompletedChunks != 1 {
		t.Errorf("Expected 1 completed chunk, got %d", resp.Data[0].CompletedChunks)
	}
}

func TestUploadsGet_NotFound(t *testing.T) {
	j := openTestJournal(t)
	handler := NewUploadsHandler(j)

	req := httptest.NewRequest("GET", "/uploads/missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
