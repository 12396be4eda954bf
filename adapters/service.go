package adapters

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/telemetry"
)

// Service is implemented by every adapter regardless of capability
type Service interface {
	// Name returns the adapter's display name
	Name() string

	// Version returns the adapter's version
	Version() string

	// IsAvailable is a liveness probe. It never panics and maps every failure to false.
	IsAvailable(ctx context.Context) bool

	// GetProcessingStatus reports the status of an asynchronous vendor job
	GetProcessingStatus(ctx context.Context, jobID string) (*ProcessingStatus, error)

	// SupportedFormats returns the accepted upload MIME types
	SupportedFormats() []string

	// MaxFileSize returns the largest accepted upload in bytes
	MaxFileSize() int64
}

// ClothingTryOn renders a garment onto a photo of a person
type ClothingTryOn interface {
	Service
	TryOn(ctx context.Context, req *TryOnRequest) *Response[TryOnResult]
	ValidateRequest(req *TryOnRequest) ValidationResult
}

// DecorVisualization places decor items into a photo of a room
type DecorVisualization interface {
	Service
	Visualize(ctx context.Context, req *DecorRequest) *Response[DecorResult]
	ValidateRequest(req *DecorRequest) ValidationResult
}

// AISizing estimates body measurements from photos
type AISizing interface {
	Service
	AnalyzeMeasurements(ctx context.Context, req *SizingRequest) *Response[SizingResult]
	ValidateRequest(req *SizingRequest) ValidationResult
}

// Options carries the process-scoped dependencies shared by all adapters
type Options struct {
	Logger     *zap.Logger
	Metrics    *telemetry.Metrics
	HTTPClient *http.Client
}

// WithDefaults fills unset options
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return o
}
