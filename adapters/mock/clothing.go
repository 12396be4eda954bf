package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// ClothingName is the display name of the mock try-on adapter
	ClothingName = "Mock Clothing Try-On"

	// DefaultClothingDelay is the artificial try-on latency
	DefaultClothingDelay = 1500 * time.Millisecond

	tryOnPlaceholder = "https://placehold.co/768x1024/png?text=Try-On+Preview"
)

// Clothing implements adapters.ClothingTryOn without any network I/O
type Clothing struct {
	base
}

var _ adapters.ClothingTryOn = (*Clothing)(nil)

// NewClothing creates the mock try-on adapter
func NewClothing(cfg adapters.ProviderConfig, opts adapters.Options) *Clothing {
	return &Clothing{base: newBase(ClothingName, cfg, DefaultClothingDelay, opts)}
}

// ValidateRequest checks the person and garment uploads
func (c *Clothing) ValidateRequest(req *adapters.TryOnRequest) adapters.ValidationResult {
	return adapters.ValidateTryOnRequest(req, c.MaxFileSize(), c.SupportedFormats())
}

// TryOn returns a canned result after the artificial delay
func (c *Clothing) TryOn(ctx context.Context, req *adapters.TryOnRequest) *adapters.Response[adapters.TryOnResult] {
	start := time.Now()
	if err := c.sleep(ctx); err != nil {
		return adapters.Fail[adapters.TryOnResult](err)
	}

	var person *adapters.MediaUpload
	category := adapters.GarmentUpperBody
	if req != nil {
		person = req.PersonImage
		if req.Options.GarmentCategory != "" {
			category = req.Options.GarmentCategory
		}
	}

	jobID := uuid.NewString()
	c.logger.Debug("mock try-on completed", zap.String("job_id", jobID))

	return adapters.Succeed(adapters.TryOnResult{
		JobID:          jobID,
		ResultImageURL: previewOr(person, tryOnPlaceholder),
		Provider:       ClothingName,
		ProcessingTime: time.Since(start),
		Confidence:     0.92,
		Metadata: map[string]interface{}{
			"mock":             true,
			"garment_category": string(category),
		},
	})
}
