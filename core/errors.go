package core

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is matched (errors.Is) by every deadline expiry in the firmware
	ErrTimeout = errors.New("timeout")

	// ErrBusProtocol is matched by any unexpected bus status during a storage operation
	ErrBusProtocol = errors.New("bus protocol error")
)

// timeoutError decorates the context error that ended a blocking operation
type timeoutError struct {
	op    string
	cause error
}

func (e *timeoutError) Error() string {
	return e.op + ": timeout"
}

func (e *timeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *timeoutError) Unwrap() error {
	return e.cause
}

// opError carries a non-deadline context error (cancellation) with the operation name
type opError struct {
	op    string
	cause error
}

func (e *opError) Error() string {
	return e.op + ": " + e.cause.Error()
}

func (e *opError) Unwrap() error {
	return e.cause
}

// ContextError converts the error of a finished context into an operation error.
// A deadline becomes ErrTimeout; cancellation stays matchable as context.Canceled.
func ContextError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &timeoutError{op: op, cause: err}
	}
	return &opError{op: op, cause: err}
}

// IsTimeout reports whether err is a deadline expiry
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
