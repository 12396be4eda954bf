package adapters

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForCompletionStopsAtMaxAttempts(t *testing.T) {
	var calls int32
	fetch := func(context.Context) (*ProcessingStatus, error) {
		atomic.AddInt32(&calls, 1)
		return &ProcessingStatus{ID: "job-1", Status: JobStatusProcessing}, nil
	}

	status, err := WaitForCompletion(context.Background(), "kling", "job-1",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 4}, fetch)

	require.Error(t, err)
	assert.Nil(t, status)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 4, timeoutErr.Attempts)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, ErrorKindTimeout, Classify(err))
}

func TestWaitForCompletionCompletes(t *testing.T) {
	statuses := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted}
	var calls int32
	fetch := func(context.Context) (*ProcessingStatus, error) {
		n := atomic.AddInt32(&calls, 1)
		return &ProcessingStatus{ID: "job-1", Status: statuses[n-1], ResultURL: "https://cdn/r.png"}, nil
	}

	status, err := WaitForCompletion(context.Background(), "kling", "job-1",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 10}, fetch)

	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, status.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWaitForCompletionFailedJob(t *testing.T) {
	fetch := func(context.Context) (*ProcessingStatus, error) {
		return &ProcessingStatus{ID: "job-1", Status: JobStatusFailed, Message: "nsfw content"}, nil
	}

	_, err := WaitForCompletion(context.Background(), "replicate-tryon", "job-1",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 10}, fetch)

	var jobErr *JobFailedError
	require.True(t, errors.As(err, &jobErr))
	assert.Contains(t, err.Error(), "nsfw content")
	assert.True(t, errors.Is(err, ErrJobFailed))
}

func TestWaitForCompletionFetchError(t *testing.T) {
	boom := &APIError{Code: 404, Message: "task not found"}
	_, err := WaitForCompletion(context.Background(), "kling", "job-1",
		PollConfig{Interval: time.Millisecond, MaxAttempts: 10},
		func(context.Context) (*ProcessingStatus, error) { return nil, boom })

	assert.Equal(t, boom, err)
}

func TestWaitForCompletionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForCompletion(ctx, "kling", "job-1",
		PollConfig{Interval: time.Hour, MaxAttempts: 10},
		func(context.Context) (*ProcessingStatus, error) {
			t.Fatal("fetch must not run after cancellation")
			return nil, nil
		})

	assert.True(t, IsCancelled(err))
}

func TestProviderConfigPoll(t *testing.T) {
	assert.Equal(t, DefaultPollConfig(), ProviderConfig{}.Poll())

	p := ProviderConfig{PollInterval: 5 * time.Second, MaxPollAttempts: 60}.Poll()
	assert.Equal(t, 5*time.Second, p.Interval)
	assert.Equal(t, 60, p.MaxAttempts)
}
