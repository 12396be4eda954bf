package adapters

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestResponseExactlyOneOfDataOrError(t *testing.T) {
	failures := []error{
		nil,
		errors.New(""),
		errors.New("boom"),
		&ValidationError{Message: "bad"},
		&APIError{Code: 500, Message: "upstream", Provider: "kling"},
		&TimeoutError{Provider: "kling", Operation: "try_on", Attempts: 30},
		&JobFailedError{Provider: "kling", JobID: "1"},
		context.Canceled,
	}

	for i, err := range failures {
		t.Run(fmt.Sprintf("fail-%d", i), func(t *testing.T) {
			resp := Fail[TryOnResult](err)
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			assert.NotEmpty(t, resp.Error)
		})
	}

	resp := Succeed(TryOnResult{ResultImageURL: "https://example.com/r.png"})
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.ErrorKind)
	assert.False(t, resp.Retryable())
	assert.False(t, resp.Cancelled())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      ErrorKind
		retryable bool
	}{
		{"validation", &ValidationError{Field: "x", Message: "bad"}, ErrorKindValidation, false},
		{"api 4xx", &APIError{Code: 400}, ErrorKindAPI, false},
		{"api 5xx", &APIError{Code: 503}, ErrorKindAPI, true},
		{"api 429", &APIError{Code: 429}, ErrorKindAPI, true},
		{"job failed", &JobFailedError{JobID: "1"}, ErrorKindAPI, false},
		{"poll timeout", &TimeoutError{Attempts: 3}, ErrorKindTimeout, true},
		{"deadline", errors.Wrap(context.DeadlineExceeded, "call"), ErrorKindTimeout, true},
		{"cancelled", errors.Wrap(context.Canceled, "call"), ErrorKindCancelled, false},
		{"network", errors.Wrap(ErrNetworkError, "dial"), ErrorKindInternal, true},
		{"other", errors.New("boom"), ErrorKindInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Fail[SizingResult](tt.err)
			assert.Equal(t, tt.kind, resp.ErrorKind)
			assert.Equal(t, tt.retryable, resp.Retryable())
			assert.Equal(t, tt.kind == ErrorKindCancelled, resp.Cancelled())
		})
	}
}
