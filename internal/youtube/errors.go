package youtube

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates no API key was supplied for the provider.
	ErrNotConfigured = errors.New("youtube: api key not configured")
	// ErrEmptyQuery indicates a search was attempted without a query.
	ErrEmptyQuery = errors.New("youtube: query must not be empty")
)

// StatusError reports a non-success response from the provider.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
