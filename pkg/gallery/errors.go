package gallery

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is an error response from the gallery server. The server reports
// failures as a JSON body with a "detail" message; anything else is carried
// verbatim.
type APIError struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gallery: HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("gallery: HTTP %d", e.StatusCode)
}

// newAPIError builds an APIError from a non-2xx response body.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if json.Unmarshal(body, apiErr) != nil || apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	apiErr.StatusCode = statusCode
	return apiErr
}
