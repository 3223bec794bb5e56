package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Class partitions failures by how the pipeline reacts to them.
type Class string

const (
	// ClassTransient errors (timeouts, resets, 5xx, rate limits) are retried.
	ClassTransient Class = "transient"
	// ClassPermanent errors (4xx, malformed URLs) are terminal immediately.
	ClassPermanent Class = "permanent"
	// ClassFatal errors are local-environment failures (disk full, permission
	// denied). Terminal for the task, never retried, logged distinctly.
	ClassFatal Class = "fatal"
)

// Error is a classified pipeline error.
type Error struct {
	Class   Class
	Message string
	// Code carries the HTTP status when the error came off the wire, else 0.
	Code int
	// RetryAfter is a server-suggested delay (from a 429 response), else 0.
	RetryAfter time.Duration
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Class, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Class, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient builds a retryable error.
func Transient(msg string, err error) *Error {
	return &Error{Class: ClassTransient, Message: msg, Err: err}
}

// Permanent builds a non-retryable request error.
func Permanent(msg string, err error) *Error {
	return &Error{Class: ClassPermanent, Message: msg, Err: err}
}

// Fatal builds a local-environment error.
func Fatal(msg string, err error) *Error {
	return &Error{Class: ClassFatal, Message: msg, Err: err}
}

// ClassOf extracts the class from an error. Unclassified errors default to
// transient so unknown network conditions get the benefit of a retry.
func ClassOf(err error) Class {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Class
	}
	return ClassTransient
}

// IsRetryable reports whether errors of the given class should be retried.
func IsRetryable(c Class) bool {
	return c == ClassTransient
}

// ClassForStatusCode maps an HTTP status to an error class. 429 is the one
// 4xx treated as transient; everything else under 500 is permanent.
func ClassForStatusCode(code int) Class {
	switch {
	case code == 429:
		return ClassTransient
	case code >= 500:
		return ClassTransient
	default:
		return ClassPermanent
	}
}
