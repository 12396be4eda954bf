package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/telemetry"
)

const (
	userAgent = "styleai-sdk/1.0"

	// ProbeTimeout bounds every availability check
	ProbeTimeout = 5 * time.Second

	retryBackoff   = 250 * time.Millisecond
	maxMessageSize = 512
)

// AuthFunc applies vendor-specific authentication to an outgoing request
type AuthFunc func(req *http.Request) error

// HTTPBase is the transport shared by vendor adapters. Every call is bounded
// by the provider's configured timeout.
type HTTPBase struct {
	Provider string
	Config   ProviderConfig

	client  *http.Client
	logger  *zap.Logger
	metrics *telemetry.Metrics
	auth    AuthFunc
}

// NewHTTPBase validates cfg and builds the transport for provider
func NewHTTPBase(provider string, cfg ProviderConfig, auth AuthFunc, opts Options) (*HTTPBase, error) {
	if err := cfg.Validate(provider); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	logger := opts.Logger.With(zap.String("provider", provider))
	if !cfg.EnableLogging {
		logger = zap.NewNop()
	}

	return &HTTPBase{
		Provider: provider,
		Config:   cfg,
		client:   opts.HTTPClient,
		logger:   logger,
		metrics:  opts.Metrics,
		auth:     auth,
	}, nil
}

// Logger returns the adapter logger
func (b *HTTPBase) Logger() *zap.Logger {
	return b.logger
}

// DoJSON marshals in as the request body and decodes the response into out
func (b *HTTPBase) DoJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return b.Do(ctx, op, method, path, body, contentType, out)
}

// Do issues one call and decodes a JSON response into out.
// Non-2xx responses become *APIError, an expired deadline becomes *TimeoutError.
func (b *HTTPBase) Do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		b.metrics.ObserveRequest(b.Provider, op, err, time.Since(start))
	}()

	callCtx, cancel := context.WithTimeout(ctx, b.Config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, b.URL(path), body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if err := b.prepare(req, contentType); err != nil {
		return err
	}

	b.logger.Debug("sending request",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("path", path))

	resp, err := b.client.Do(req)
	if err != nil {
		return b.transportError(ctx, callCtx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return b.transportError(ctx, callCtx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Code:     resp.StatusCode,
			Message:  vendorMessage(data, resp.Status),
			Provider: b.Provider,
		}
		b.logger.Warn("vendor returned an error",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", op)
	}
	return nil
}

// Retry runs fn again while it fails with a retryable error, up to RetryAttempts extra times.
// Only idempotent calls go through here.
func (b *HTTPBase) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for i := 0; i <= b.Config.RetryAttempts; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i) * retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !IsRetryableError(lastErr) {
			return lastErr
		}
		b.logger.Debug("attempt failed, retrying", zap.Int("attempt", i+1), zap.Error(lastErr))
	}
	return lastErr
}

// Probe performs a GET against path and reports whether it answered 2xx.
// It applies ProbeTimeout and never panics.
func (b *HTTPBase) Probe(ctx context.Context, path string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("availability probe panicked", zap.Any("panic", r))
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL(path), nil)
	if err != nil {
		return false
	}
	if err := b.prepare(req, ""); err != nil {
		b.logger.Debug("availability probe not authenticated", zap.Error(err))
		return false
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Debug("availability probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// URL resolves path against the configured base URL. Absolute URLs pass through.
func (b *HTTPBase) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(b.Config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (b *HTTPBase) prepare(req *http.Request, contentType string) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range b.Config.CustomHeaders {
		req.Header.Set(k, v)
	}
	if b.auth != nil {
		if err := b.auth(req); err != nil {
			return errors.Wrap(err, "failed to authenticate request")
		}
	}
	return nil
}

func (b *HTTPBase) transportError(parent, call context.Context, op string, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return errors.Wrapf(context.Canceled, "%s cancelled", op)
	case errors.Is(call.Err(), context.DeadlineExceeded):
		return &TimeoutError{Provider: b.Provider, Operation: op, After: b.Config.Timeout}
	default:
		return errors.Wrapf(ErrNetworkError, "%s: %v", op, err)
	}
}

// vendorMessage pulls a human-readable message out of a vendor error body
func vendorMessage(body []byte, fallback string) string {
	var payload map[string]interface{}
	if json.Unmarshal(body, &payload) == nil {
		for _, key := range []string{"message", "detail", "error", "title"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
		if nested, ok := payload["error"].(map[string]interface{}); ok {
			if s, ok := nested["message"].(string); ok && s != "" {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fallback
	}
	if len(msg) > maxMessageSize {
		msg = msg[:maxMessageSize] + "..."
	}
	return msg
}
