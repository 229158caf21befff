package github

import (
	"errors"
	"fmt"
)

// Common errors returned by the GitHub client.
var (
	// ErrNotFound indicates the repository or path was not found.
	ErrNotFound = errors.New("not found on GitHub")

	// ErrAuthError indicates an authentication error (missing/invalid token).
	ErrAuthError = errors.New("GitHub authentication error")

	// ErrRateLimited indicates the API rate limit has been exceeded.
	ErrRateLimited = errors.New("GitHub rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with GitHub")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from GitHub")
)

// APIError represents an error response from the GitHub API.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("GitHub API error (status %d): %s (path: %s)", e.StatusCode, e.Message, e.Path)
	}
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing repository or path.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
