package moderapi

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the moderation service. A 4xx
// with a message body is a validation error whose message is meant for
// the moderator verbatim; everything else is a transport failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("moderation api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("moderation api: unexpected status %d", e.StatusCode)
}

// IsValidation reports whether err is a 4xx response carrying a
// server-provided message, and returns that message.
func IsValidation(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
