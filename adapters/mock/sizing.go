package mock

import (
	"context"
	"time"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// SizingName is the display name of the mock sizing adapter
	SizingName = "Mock AI Sizing"

	// DefaultSizingDelay is the artificial analysis latency
	DefaultSizingDelay = time.Second
)

var cannedMeasurements = adapters.Measurements{
	Height:        170,
	Chest:         96,
	Waist:         81,
	Hips:          99,
	Inseam:        81,
	ShoulderWidth: 46,
	ArmLength:     61,
	Neck:          38,
}

// CannedMeasurements returns a copy of what the mock sizing adapter always reports
func CannedMeasurements() adapters.Measurements {
	return cannedMeasurements
}

// Sizing implements adapters.AISizing without any network I/O
type Sizing struct {
	base
}

var _ adapters.AISizing = (*Sizing)(nil)

// NewSizing creates the mock sizing adapter
func NewSizing(cfg adapters.ProviderConfig, opts adapters.Options) *Sizing {
	return &Sizing{base: newBase(SizingName, cfg, DefaultSizingDelay, opts)}
}

// ValidateRequest checks both photos and the optional height
func (s *Sizing) ValidateRequest(req *adapters.SizingRequest) adapters.ValidationResult {
	return adapters.ValidateSizingRequest(req, s.MaxFileSize(), s.SupportedFormats())
}

// AnalyzeMeasurements returns the canned measurements after the artificial delay
func (s *Sizing) AnalyzeMeasurements(ctx context.Context, _ *adapters.SizingRequest) *adapters.Response[adapters.SizingResult] {
	start := time.Now()
	if err := s.sleep(ctx); err != nil {
		return adapters.Fail[adapters.SizingResult](err)
	}

	return adapters.Succeed(adapters.SizingResult{
		Measurements: cannedMeasurements,
		Recommendations: []adapters.SizeRecommendation{
			{Category: "tops", Size: "M", Confidence: 0.88},
			{Category: "bottoms", Size: "32", Confidence: 0.84},
			{Category: "dresses", Size: "M", Confidence: 0.8},
		},
		Confidence:     0.87,
		Provider:       SizingName,
		ProcessingTime: time.Since(start),
	})
}
