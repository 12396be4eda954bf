package adapters

import (
	"context"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failed response so callers can pick an affordance
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindAPI        ErrorKind = "api"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindCancelled  ErrorKind = "cancelled"
	ErrorKindInternal   ErrorKind = "internal"
)

// Response is the envelope returned by every capability operation.
// Exactly one of Data or Error is populated; build it with Succeed or Fail.
type Response[T any] struct {
	Success   bool      `json:"success"`
	Data      *T        `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	retryable bool
}

// Succeed wraps a result payload
func Succeed[T any](data T) *Response[T] {
	return &Response[T]{Success: true, Data: &data}
}

// Fail converts err into a failure envelope
func Fail[T any](err error) *Response[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	msg := err.Error()
	if msg == "" {
		msg = "unknown error"
	}
	return &Response[T]{
		Success:   false,
		Error:     msg,
		ErrorKind: Classify(err),
		retryable: IsRetryableError(err),
	}
}

// Retryable reports whether trying again is worthwhile
func (r *Response[T]) Retryable() bool {
	return !r.Success && r.retryable
}

// Cancelled reports a caller-initiated cancellation, which is not a reportable error
func (r *Response[T]) Cancelled() bool {
	return !r.Success && r.ErrorKind == ErrorKindCancelled
}

// Classify maps an error onto the ErrorKind taxonomy
func Classify(err error) ErrorKind {
	var (
		validationErr *ValidationError
		apiErr        *APIError
		jobErr        *JobFailedError
	)
	switch {
	case err == nil:
		return ""
	case IsCancelled(err):
		return ErrorKindCancelled
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.As(err, &validationErr):
		return ErrorKindValidation
	case errors.As(err, &apiErr), errors.As(err, &jobErr):
		return ErrorKindAPI
	default:
		return ErrorKindInternal
	}
}
