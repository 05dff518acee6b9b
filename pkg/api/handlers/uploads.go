package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mrusso19/picshuttle/pkg/journal"
)

// UploadsHandler serves the journaled upload sessions.
type UploadsHandler struct {
	journal *journal.Journal
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(j *journal.Journal) *UploadsHandler {
	return &UploadsHandler{journal: j}
}

// uploadSummary is the wire shape of one journaled session.
type uploadSummary struct {
	LocalID         string `json:"local_id"`
	UploadID        string `json:"upload_id,omitempty"`
	Filename        string `json:"filename"`
	Guest           string `json:"guest,omitempty"`
	Size            int64  `json:"size"`
	TotalChunks     int    `json:"total_chunks"`
	CompletedChunks int    `json:"completed_chunks"`
	State           string `json:"state"`
	Error           string `json:"error,omitempty"`
	StartedAt       string `json:"started_at"`
	UpdatedAt       string `json:"updated_at"`
}

func summarize(rec *journal.Record) uploadSummary {
	return uploadSummary{
		LocalID:         rec.LocalID,
		UploadID:        rec.UploadID,
		Filename:        rec.Filename,
		Guest:           rec.Guest,
		Size:            rec.Size,
		TotalChunks:     rec.TotalChunks,
		CompletedChunks: rec.CompletedChunks(),
		State:           rec.State,
		Error:           rec.Error,
		StartedAt:       rec.StartedAt.Format(time.RFC3339),
		UpdatedAt:       rec.UpdatedAt.Format(time.RFC3339),
	}
}

// List handles GET /uploads - all journaled sessions, newest first.
func (h *UploadsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("journal not initialized"))
		return
	}

	records, err := h.journal.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("failed to list uploads"))
		return
	}

	summaries := make([]uploadSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, summarize(rec))
	}
	writeJSON(w, http.StatusOK, okResponse(summaries))
}

// Get handles GET /uploads/{id} - a single journaled session by local ID.
func (h *UploadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("journal not initialized"))
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.journal.Get(id)
	if errors.Is(err, journal.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse("upload not found"))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("failed to read upload"))
		return
	}

	writeJSON(w, http.StatusOK, okResponse(summarize(rec)))
}
