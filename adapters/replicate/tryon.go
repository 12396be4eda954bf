package replicate

import (
	"context"
	"time"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// TryOnName is the display name of the try-on adapter
	TryOnName = "Replicate Virtual Try-On"

	// DefaultTryOnModelVersion is cuuupid/idm-vton
	DefaultTryOnModelVersion = "c871bb9b046607b680449ecbae55fd8c6d945e0a1948644bf2361b3d021d3ff4"
)

// TryOn implements adapters.ClothingTryOn on an IDM-VTON style model
type TryOn struct {
	*client
}

var _ adapters.ClothingTryOn = (*TryOn)(nil)

// NewTryOn creates the try-on adapter. id is the provider identifier.
func NewTryOn(id string, cfg adapters.ProviderConfig, opts adapters.Options) (*TryOn, error) {
	c, err := newClient(id, cfg, DefaultTryOnModelVersion, opts)
	if err != nil {
		return nil, err
	}
	return &TryOn{client: c}, nil
}

// Name returns the provider name
func (t *TryOn) Name() string { return TryOnName }

// Version returns the adapter version
func (t *TryOn) Version() string { return version }

// SupportedFormats returns the accepted image formats
func (t *TryOn) SupportedFormats() []string {
	return append([]string{}, adapters.ImageFormats...)
}

// MaxFileSize returns the largest accepted upload
func (t *TryOn) MaxFileSize() int64 {
	return adapters.DefaultMaxFileSize
}

// IsAvailable reports whether the Replicate account endpoint answers
func (t *TryOn) IsAvailable(ctx context.Context) bool {
	return t.available(ctx)
}

// GetProcessingStatus returns the current state of a prediction
func (t *TryOn) GetProcessingStatus(ctx context.Context, jobID string) (*adapters.ProcessingStatus, error) {
	return t.status(ctx, jobID)
}

// ValidateRequest checks the request without contacting Replicate
func (t *TryOn) ValidateRequest(req *adapters.TryOnRequest) adapters.ValidationResult {
	return adapters.ValidateTryOnRequest(req, t.MaxFileSize(), adapters.ImageFormats)
}

// TryOn runs the try-on prediction
func (t *TryOn) TryOn(ctx context.Context, req *adapters.TryOnRequest) *adapters.Response[adapters.TryOnResult] {
	if v := t.ValidateRequest(req); !v.Valid {
		return adapters.Fail[adapters.TryOnResult](v.Err())
	}
	start := time.Now()

	human, err := t.mediaInput(ctx, req.PersonImage)
	if err != nil {
		return adapters.Fail[adapters.TryOnResult](err)
	}
	garment, err := t.mediaInput(ctx, req.GarmentImage)
	if err != nil {
		return adapters.Fail[adapters.TryOnResult](err)
	}

	category := req.Options.GarmentCategory
	if category == "" {
		category = adapters.GarmentUpperBody
	}
	description := req.Options.Description
	if description == "" {
		description = "a garment"
	}
	input := map[string]interface{}{
		"human_img":   human,
		"garm_img":    garment,
		"garment_des": description,
		"category":    string(category),
	}
	if req.Options.Seed != nil {
		input["seed"] = *req.Options.Seed
	}

	status, err := t.run(ctx, "try_on", input)
	if err != nil {
		return adapters.Fail[adapters.TryOnResult](err)
	}

	return adapters.Succeed(adapters.TryOnResult{
		JobID:          status.ID,
		ResultImageURL: status.ResultURL,
		Provider:       TryOnName,
		ProcessingTime: time.Since(start),
		Metadata: map[string]interface{}{
			"model_version":    t.modelVersion,
			"garment_category": string(category),
		},
	})
}
