package client

import (
	"errors"
	"fmt"
)

var (
	ErrServerClosed     = errors.New("server connection closed")
	ErrNotJoined        = errors.New("not joined to a room")
	ErrMediaUnavailable = errors.New("local media unavailable")
)

// SessionError wraps a failure with the operation that caused it.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
