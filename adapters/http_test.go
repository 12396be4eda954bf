package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestBase(t *testing.T, url string, mutate func(*ProviderConfig)) *HTTPBase {
	t.Helper()
	cfg := ProviderConfig{
		BaseURL:       url,
		APIKey:        "secret",
		Timeout:       time.Second,
		EnableLogging: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	auth := func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
		return nil
	}
	base, err := NewHTTPBase("test", cfg, auth, Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return base
}

func TestNewHTTPBaseValidatesConfig(t *testing.T) {
	_, err := NewHTTPBase("kling", ProviderConfig{BaseURL: "https://api", Timeout: time.Second}, nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "API key is required")
}

func TestDoJSONSendsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "storefront", r.Header.Get("X-Client"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"id":"abc"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	base := newTestBase(t, srv.URL+"/", func(c *ProviderConfig) {
		c.CustomHeaders = map[string]string{"X-Client": "storefront"}
	})

	var out struct {
		ID string `json:"id"`
	}
	err := base.DoJSON(context.Background(), "echo", http.MethodPost, "/v1/echo", map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.ID)
}

func TestDoMapsVendorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"invalid version"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	base := newTestBase(t, srv.URL, nil)
	err := base.DoJSON(context.Background(), "create", http.MethodPost, "/v1/predictions", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Code)
	assert.Equal(t, "invalid version", apiErr.Message)
	assert.Equal(t, "test", apiErr.Provider)
}

func TestDoTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	base := newTestBase(t, srv.URL, nil)
	err := base.DoJSON(context.Background(), "slow", http.MethodGet, "/slow", nil, nil)

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "slow", timeoutErr.Operation)
	assert.Equal(t, ErrorKindTimeout, Classify(err))
}

func TestDoReportsCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	base := newTestBase(t, srv.URL, nil)
	err := base.DoJSON(ctx, "slow", http.MethodGet, "/slow", nil, nil)

	assert.True(t, IsCancelled(err))
	assert.Equal(t, ErrorKindCancelled, Classify(err))
}

func TestRetryOnlyRetriesRetryableErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer srv.Close()

	base := newTestBase(t, srv.URL, func(c *ProviderConfig) { c.RetryAttempts = 2 })
	err := base.Retry(context.Background(), func(ctx context.Context) error {
		return base.DoJSON(ctx, "status", http.MethodGet, "/status", nil, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	calls = 0
	err = base.Retry(context.Background(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return &APIError{Code: http.StatusNotFound}
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))

	base := newTestBase(t, srv.URL, nil)
	assert.True(t, base.Probe(context.Background(), "/up"))
	assert.False(t, base.Probe(context.Background(), "/down"))

	srv.Close()
	assert.False(t, base.Probe(context.Background(), "/up"))
}

func TestProbeRecoversFromAuthPanic(t *testing.T) {
	base, err := NewHTTPBase("test", ProviderConfig{BaseURL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second},
		func(*http.Request) error { panic("bad signer") }, Options{})
	require.NoError(t, err)

	assert.False(t, base.Probe(context.Background(), "/"))
}

func TestVendorMessage(t *testing.T) {
	assert.Equal(t, "quota", vendorMessage([]byte(`{"message":"quota"}`), "429"))
	assert.Equal(t, "nested", vendorMessage([]byte(`{"error":{"message":"nested"}}`), "500"))
	assert.Equal(t, "plain text", vendorMessage([]byte("plain text"), "500"))
	assert.Equal(t, "502 Bad Gateway", vendorMessage(nil, "502 Bad Gateway"))
}
