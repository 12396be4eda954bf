package adapters

import (
	"time"
)

// JobStatus represents the canonical status of an asynchronous vendor job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProcessingStatus is returned by the job-polling operation
type ProcessingStatus struct {
	ID            string        `json:"id"`
	Status        JobStatus     `json:"status"`
	Progress      int           `json:"progress,omitempty"`
	Message       string        `json:"message,omitempty"`
	EstimatedTime time.Duration `json:"estimated_time,omitempty"`
	ResultURL     string        `json:"result_url,omitempty"`
}

// GarmentCategory tells try-on models which body region the garment covers
type GarmentCategory string

const (
	GarmentUpperBody GarmentCategory = "upper_body"
	GarmentLowerBody GarmentCategory = "lower_body"
	GarmentDresses   GarmentCategory = "dresses"
)

// TryOnOptions holds optional parameters for a clothing try-on
type TryOnOptions struct {
	GarmentCategory GarmentCategory `json:"garment_category,omitempty"`
	Description     string          `json:"description,omitempty"`
	Model           string          `json:"model,omitempty"`
	Quality         string          `json:"quality,omitempty"`
	Seed            *int            `json:"seed,omitempty"`
}

// TryOnRequest represents a clothing try-on request
type TryOnRequest struct {
	PersonImage  *MediaUpload `json:"person_image"`
	GarmentImage *MediaUpload `json:"garment_image"`
	Options      TryOnOptions `json:"options"`
}

// TryOnResult is the normalized try-on payload shared by every provider
type TryOnResult struct {
	JobID          string                 `json:"job_id,omitempty"`
	ResultImageURL string                 `json:"result_image_url"`
	Provider       string                 `json:"provider"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Confidence     float64                `json:"confidence,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// DecorOptions holds optional parameters for a decor visualization
type DecorOptions struct {
	Style     string `json:"style,omitempty"`
	RoomType  string `json:"room_type,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
	Placement string `json:"placement,omitempty"`
}

// DecorRequest represents a decor visualization request
type DecorRequest struct {
	RoomImage  *MediaUpload   `json:"room_image"`
	DecorItems []*MediaUpload `json:"decor_items"`
	Options    DecorOptions   `json:"options"`
}

// Placement describes where a decor item was rendered in the room image
type Placement struct {
	Item       string  `json:"item"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Scale      float64 `json:"scale"`
	Confidence float64 `json:"confidence"`
}

// DecorResult is the normalized decor payload shared by every provider
type DecorResult struct {
	JobID          string        `json:"job_id,omitempty"`
	ResultImageURL string        `json:"result_image_url"`
	Provider       string        `json:"provider"`
	ProcessingTime time.Duration `json:"processing_time"`
	Placements     []Placement   `json:"placements,omitempty"`
}

// SizingOptions holds optional hints for body measurement analysis
type SizingOptions struct {
	HeightCM float64 `json:"height_cm,omitempty"`
	WeightKG float64 `json:"weight_kg,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// SizingRequest represents a body measurement request
type SizingRequest struct {
	FrontImage *MediaUpload  `json:"front_image"`
	SideImage  *MediaUpload  `json:"side_image"`
	Options    SizingOptions `json:"options"`
}

// Measurements are expressed in centimetres
type Measurements struct {
	Height        float64 `json:"height"`
	Chest         float64 `json:"chest"`
	Waist         float64 `json:"waist"`
	Hips          float64 `json:"hips"`
	Inseam        float64 `json:"inseam"`
	ShoulderWidth float64 `json:"shoulder_width"`
	ArmLength     float64 `json:"arm_length"`
	Neck          float64 `json:"neck"`
}

// SizeRecommendation suggests a size for a garment type
type SizeRecommendation struct {
	Category   string  `json:"category"`
	Size       string  `json:"size"`
	Confidence float64 `json:"confidence"`
}

// SizingResult is the normalized sizing payload shared by every provider
type SizingResult struct {
	Measurements    Measurements         `json:"measurements"`
	Recommendations []SizeRecommendation `json:"recommendations,omitempty"`
	Confidence      float64              `json:"confidence"`
	Provider        string               `json:"provider"`
	ProcessingTime  time.Duration        `json:"processing_time"`
}

// ProviderConfig holds connection settings for a specific provider.
// In YAML, timeout and pollInterval are duration strings such as "30s".
type ProviderConfig struct {
	BaseURL         string            `json:"base_url" yaml:"baseUrl"`
	APIKey          string            `json:"api_key" yaml:"apiKey"`
	Timeout         time.Duration     `json:"timeout" yaml:"timeout"`
	RetryAttempts   int               `json:"retry_attempts" yaml:"retryAttempts"`
	EnableLogging   bool              `json:"enable_logging" yaml:"enableLogging"`
	CustomHeaders   map[string]string `json:"custom_headers,omitempty" yaml:"customHeaders"`
	PollInterval    time.Duration     `json:"poll_interval" yaml:"pollInterval"`
	MaxPollAttempts int               `json:"max_poll_attempts" yaml:"maxPollAttempts"`
	Extra           map[string]string `json:"extra,omitempty" yaml:"extra"`
}

// MinTimeout is the smallest per-call timeout a vendor provider may use
const MinTimeout = time.Second

// Validate checks the fields every vendor provider needs
func (c ProviderConfig) Validate(provider string) error {
	var errs ConfigErrors
	if c.BaseURL == "" {
		errs = append(errs, &ConfigError{Provider: provider, Field: "baseUrl", Message: "base URL is required"})
	}
	if c.APIKey == "" {
		errs = append(errs, &ConfigError{Provider: provider, Field: "apiKey", Message: "API key is required"})
	}
	if c.Timeout < MinTimeout {
		errs = append(errs, &ConfigError{Provider: provider, Field: "timeout", Message: "timeout must be at least 1s"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Poll returns the polling settings, applying defaults for unset values
func (c ProviderConfig) Poll() PollConfig {
	p := DefaultPollConfig()
	if c.PollInterval > 0 {
		p.Interval = c.PollInterval
	}
	if c.MaxPollAttempts > 0 {
		p.MaxAttempts = c.MaxPollAttempts
	}
	return p
}
