// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-input.

package api

import "fmt"

// Sentinel errors used across the library.
var (
	// ErrWouldBlock reports a transient condition: no event is ready to
	// consume, or the acknowledgment channel is full. Not a failure.
	ErrWouldBlock = fmt.Errorf("operation would block")

	// ErrChannelDead reports that the channel peer has torn down its end.
	ErrChannelDead = fmt.Errorf("channel peer is gone")

	// ErrClientGone reports that the client callback target was released
	// without the receiver being disposed first.
	ErrClientGone = fmt.Errorf("client released without dispose")

	// ErrDisposed reports use of a receiver after Dispose.
	ErrDisposed = fmt.Errorf("receiver is disposed")

	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotSupported    = fmt.Errorf("operation not supported")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeChannelDead
	ErrCodeIO
	ErrCodeNotSupported
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
