// Package apperr carries user-facing errors with the endpoint and status code
// they originated from.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a user-facing failure
type Error struct {
	Message    string
	Endpoint   string
	StatusCode int
	Err        error
}

// New creates an Error without a cause
func New(status int, endpoint, msg string) *Error {
	return &Error{Message: msg, Endpoint: endpoint, StatusCode: status}
}

// Wrap attaches endpoint and status to a cause
func Wrap(err error, status int, endpoint, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: msg, Endpoint: endpoint, StatusCode: status, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Endpoint, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Endpoint, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Status returns the status code carried by err, or 500
func Status(err error) int {
	if ae, ok := As(err); ok && ae.StatusCode != 0 {
		return ae.StatusCode
	}
	return http.StatusInternalServerError
}
