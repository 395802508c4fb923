package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoCredential = errors.New("no stored credential")
	ErrRejected     = errors.New("rejected by server")
	ErrUnauthorized = errors.New("session unauthorized")
	ErrNetwork      = errors.New("server unreachable")
)

// StatusError carries the HTTP status of a failed call and unwraps to one of
// the sentinels above.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (%d %s)", e.Err, e.Status, http.StatusText(e.Status))
}

func (e *StatusError) Unwrap() error { return e.Err }

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
