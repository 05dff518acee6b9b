// Package gallery provides the HTTP client for the photo gallery endpoint.
//
// The gallery server owns sessions and assembled files; this client only
// speaks its upload contract (start-session, upload-chunk, complete-session)
// plus the read-only folder listing. All mutating calls belong to exactly one
// upload session identified by the server-issued upload ID.
package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mrusso19/picshuttle/internal/telemetry"
	"github.com/mrusso19/picshuttle/pkg/cache"
)

// DefaultTimeout bounds a single HTTP request, including the transfer of one
// chunk payload. Chunks are bounded in size, so a stuck request is a failure.
const DefaultTimeout = 2 * time.Minute

// Client is the gallery API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	folders    *cache.Cache[string, []Folder]
}

// New creates a new gallery client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		folders: cache.New[string, []Folder](cache.DefaultTTL),
	}
}

// WithTimeout returns a new client with the given per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout <= 0 {
		return c
	}
	return &Client{
		baseURL:    c.baseURL,
		httpClient: &http.Client{Timeout: timeout},
		folders:    c.folders,
	}
}

// WithCacheTTL returns a new client whose folder-listing cache keeps entries
// for the given duration. A non-positive TTL keeps the current cache.
func (c *Client) WithCacheTTL(ttl time.Duration) *Client {
	if ttl <= 0 {
		return c
	}
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		folders:    cache.New[string, []Folder](ttl),
	}
}

// BaseURL returns the server base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// postJSON performs a POST with a JSON body and decodes the response.
// A nil body sends an empty request; a nil result discards the response body.
func (c *Client) postJSON(ctx context.Context, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, result)
}

// getJSON performs a GET request and decodes the response.
func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, result)
}

// send executes the request and decodes a JSON response into result.
// Non-2xx responses become *APIError.
func (c *Client) send(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	telemetry.SetAttributes(req.Context(), telemetry.HTTPStatus(resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
