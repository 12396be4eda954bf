package adapters

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Default polling bounds for asynchronous vendors: 2s x 30 attempts
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxPollAttempts = 30
)

// PollConfig bounds a poll loop
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig returns the default polling bounds
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxPollAttempts,
	}
}

// StatusFunc fetches the current status of a job
type StatusFunc func(ctx context.Context) (*ProcessingStatus, error)

// WaitForCompletion polls fetch until the job completes, fails, or
// MaxAttempts fetches have been made. A failed job yields *JobFailedError and
// exhaustion yields *TimeoutError.
func WaitForCompletion(ctx context.Context, provider, jobID string, cfg PollConfig, fetch StatusFunc) (*ProcessingStatus, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxPollAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}

	timer := time.NewTimer(cfg.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for job %s", jobID)
		case <-timer.C:
		}

		status, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case JobStatusCompleted:
			return status, nil
		case JobStatusFailed:
			return nil, &JobFailedError{Provider: provider, JobID: jobID, Message: status.Message}
		}

		timer.Reset(cfg.Interval)
	}

	return nil, &TimeoutError{
		Provider:  provider,
		Operation: "job " + jobID,
		After:     time.Duration(cfg.MaxAttempts) * cfg.Interval,
		Attempts:  cfg.MaxAttempts,
	}
}
