package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus is returned for unknown status strings.
	ErrInvalidStatus = errors.New("invalid job status")
	// ErrTransitionNotAllowed is returned for status moves users may not make.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// RetryDelay returns the wait the server asked for, zero if none.
func (e *HTTPError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// RemoteError is an application-level failure reported by a remote function
// inside an otherwise successful response.
type RemoteError struct {
	Function string
	Message  string
}

func (e *RemoteError) Error() string {
	if e.Function == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}

// UserError is a failure shown to the user: a short title plus the underlying message.
type UserError struct {
	Title string
	Err   error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s: %v", e.Title, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}
