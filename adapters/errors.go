package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Common errors
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNetworkError         = errors.New("network error")
	ErrTimeout              = errors.New("timeout")
	ErrJobFailed            = errors.New("job failed")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
)

// APIError represents a non-success response from a vendor API
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

func (e *APIError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] API error %d: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// ValidationError represents a request validation error
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// TimeoutError is raised when a vendor call or a poll loop exceeds its bound
type TimeoutError struct {
	Provider  string
	Operation string
	After     time.Duration
	Attempts  int
}

func (e *TimeoutError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("[%s] %s timed out after %d attempts", e.Provider, e.Operation, e.Attempts)
	}
	return fmt.Sprintf("[%s] %s timed out after %s", e.Provider, e.Operation, e.After)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// JobFailedError is raised when a vendor reports a job as failed
type JobFailedError struct {
	Provider string
	JobID    string
	Message  string
}

func (e *JobFailedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no reason given"
	}
	return fmt.Sprintf("[%s] job %s failed: %s", e.Provider, e.JobID, msg)
}

func (e *JobFailedError) Unwrap() error {
	return ErrJobFailed
}

// ConfigError reports a missing or invalid provider configuration field
type ConfigError struct {
	Provider string `json:"provider"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// ConfigErrors aggregates every problem found in one provider configuration
type ConfigErrors []*ConfigError

func (e ConfigErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e ConfigErrors) Unwrap() error {
	return ErrInvalidConfiguration
}

// Messages returns the individual messages without the provider prefix
func (e ConfigErrors) Messages() []string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return msgs
}

// IsRetryableError determines if an error is retryable
func IsRetryableError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// Retry on server errors (5xx) and rate limiting (429)
		return apiErr.Code >= 500 || apiErr.Code == 429
	}

	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrNetworkError) ||
		errors.Is(err, ErrRateLimitExceeded)
}

// IsCancelled reports whether err stems from caller-initiated cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
