package dblp

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the DBLP client.
var (
	// ErrRateLimited indicates DBLP asked us to slow down (HTTP 429).
	ErrRateLimited = errors.New("DBLP rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with DBLP")

	// ErrInvalidResponse indicates a response body that is not valid BibTeX.
	ErrInvalidResponse = errors.New("invalid response from DBLP")
)

// APIError is a non-success HTTP status from DBLP.
type APIError struct {
	StatusCode int
	Message    string
	Query      string // For context in error messages
}

func (e *APIError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("DBLP API error (status %d): %s (query: %q)", e.StatusCode, e.Message, e.Query)
	}
	return fmt.Sprintf("DBLP API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsTransient returns true for failures that may succeed when retried:
// network errors, rate limiting, timeouts and server errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkError) || IsRateLimited(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}
