// Package mock provides network-free adapters for every capability. They are
// always constructible and always available, and serve as the terminal fallback.
package mock

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// DelayKey overrides the artificial delay via ProviderConfig.Extra, e.g. "250ms"
	DelayKey = "delay"

	version = "1.0.0-mock"
)

// base carries what all mocks share
type base struct {
	name   string
	delay  time.Duration
	logger *zap.Logger
}

func newBase(name string, cfg adapters.ProviderConfig, defaultDelay time.Duration, opts adapters.Options) base {
	opts = opts.WithDefaults()
	return base{
		name:   name,
		delay:  delayFrom(cfg, defaultDelay),
		logger: opts.Logger.With(zap.String("provider", name)),
	}
}

func (b *base) Name() string    { return b.name }
func (b *base) Version() string { return version }

// Delay returns the artificial latency applied to every operation
func (b *base) Delay() time.Duration { return b.delay }

func (b *base) IsAvailable(context.Context) bool { return true }

func (b *base) SupportedFormats() []string {
	return append([]string{}, adapters.ImageFormats...)
}

func (b *base) MaxFileSize() int64 {
	return adapters.DefaultMaxFileSize
}

// GetProcessingStatus reports every job as completed; mocks never queue work
func (b *base) GetProcessingStatus(_ context.Context, jobID string) (*adapters.ProcessingStatus, error) {
	return &adapters.ProcessingStatus{
		ID:       jobID,
		Status:   adapters.JobStatusCompleted,
		Progress: 100,
		Message:  "mock job completed",
	}, nil
}

// sleep waits out the artificial delay unless the caller gives up first
func (b *base) sleep(ctx context.Context) error {
	if b.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(b.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "%s", b.name)
	case <-timer.C:
		return nil
	}
}

// delayFrom reads the delay override; malformed values keep the default
func delayFrom(cfg adapters.ProviderConfig, def time.Duration) time.Duration {
	raw, ok := cfg.Extra[DelayKey]
	if !ok || raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func previewOr(m *adapters.MediaUpload, fallback string) string {
	if m != nil && m.PreviewURL != "" {
		return m.PreviewURL
	}
	return fallback
}
