package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
)

// startSessionRequest is the body of POST /start-session.
type startSessionRequest struct {
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	Guest       string `json:"guest"`
}

// startSessionResponse is the server's answer to a session start. ChunkSize
// is authoritative and may differ from the size the caller planned with.
type startSessionResponse struct {
	UploadID  string `json:"upload_id"`
	ChunkSize int64  `json:"chunk_size"`
}

// StartSession opens an upload session for a file split into totalChunks
// pieces. It returns the server-issued upload ID and the authoritative chunk
// size; callers must recompute their chunk plan from the returned size.
func (c *Client) StartSession(ctx context.Context, filename string, totalChunks int, guest string) (uploadID string, chunkSize int64, err error) {
	req := startSessionRequest{
		Filename:    filename,
		TotalChunks: totalChunks,
		Guest:       guest,
	}
	var resp startSessionResponse
	if err := c.postJSON(ctx, "/start-session", req, &resp); err != nil {
		return "", 0, fmt.Errorf("start session: %w", err)
	}
	if resp.UploadID == "" {
		return "", 0, fmt.Errorf("start session: server returned empty upload_id")
	}
	return resp.UploadID, resp.ChunkSize, nil
}

// UploadChunk transfers one chunk payload for the session identified by
// uploadID. The payload travels as the binary "chunk" part of a multipart
// form alongside the chunk_index and total_chunks fields. Compressed payloads
// are flagged through the part's Content-Type so the server can decide
// whether to inflate.
func (c *Client) UploadChunk(ctx context.Context, uploadID string, index, totalChunks int, payload []byte, compressed bool) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("chunk_index", strconv.Itoa(index)); err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}
	if err := w.WriteField("total_chunks", strconv.Itoa(totalChunks)); err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}

	part, err := w.CreatePart(chunkPartHeader(index, compressed))
	if err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}

	path := "/upload-chunk/" + url.PathEscape(uploadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}
	return nil
}

// chunkPartHeader builds the multipart header for the binary chunk part.
func chunkPartHeader(index int, compressed bool) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="chunk"; filename="chunk-%06d"`, index))
	if compressed {
		h.Set("Content-Type", "application/gzip")
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	return h
}

// CompleteSession finalizes the session once every chunk has been
// acknowledged. The server's result payload is returned verbatim.
func (c *Client) CompleteSession(ctx context.Context, uploadID string) (json.RawMessage, error) {
	path := "/complete-session/" + url.PathEscape(uploadID)
	var payload json.RawMessage
	if err := c.postJSON(ctx, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return payload, nil
}
