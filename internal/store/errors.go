package store

import (
	"errors"
	"fmt"
)

// ErrMissingID is returned when updating a bill that has no id
var ErrMissingID = errors.New("bill has no id")

// Error is a non-2xx answer from the API
type Error struct {
	StatusCode int
	Body       string
}

// Error returns the message shown to the user, e.g. "Erreur 404"
func (e *Error) Error() string {
	return fmt.Sprintf("Erreur %d", e.StatusCode)
}

// StatusCode extracts the HTTP status of err, or 0 when err is not an API error
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
