package adapters

import (
	"fmt"
	"strings"
)

const (
	// MaxDecorItems bounds how many items a single visualization may place
	MaxDecorItems = 5

	minHeightCM = 50
	maxHeightCM = 250
)

// Common upload limits
const (
	MB int64 = 1024 * 1024

	DefaultMaxFileSize int64 = 10 * MB
)

// ImageFormats are the MIME types accepted by most image providers
var ImageFormats = []string{"image/jpeg", "image/png", "image/webp"}

// ValidationResult is the outcome of a request validator
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Err converts an invalid result into a *ValidationError
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Message: strings.Join(r.Errors, "; ")}
}

func newResult(errs []string) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateUpload is the generic file validator: presence, emptiness, size and type
func ValidateUpload(m *MediaUpload, label string, maxSize int64, formats []string) []string {
	if m == nil {
		return []string{label + " is required"}
	}
	var errs []string
	if m.Len() == 0 {
		errs = append(errs, label+" is empty")
	}
	if maxSize > 0 && m.Len() > maxSize {
		errs = append(errs, fmt.Sprintf("%s exceeds maximum file size of %s (got %s)",
			label, formatBytes(maxSize), formatBytes(m.Len())))
	}
	if len(formats) > 0 && !supportsFormat(formats, m.MIMEType) {
		errs = append(errs, fmt.Sprintf("%s has unsupported format %q (supported: %s)",
			label, m.MIMEType, strings.Join(formats, ", ")))
	}
	return errs
}

// ValidateTryOnRequest checks a try-on request against the given limits
func ValidateTryOnRequest(req *TryOnRequest, maxSize int64, formats []string) ValidationResult {
	if req == nil {
		return newResult([]string{"request is required"})
	}
	var errs []string
	errs = append(errs, ValidateUpload(req.PersonImage, "person image", maxSize, formats)...)
	errs = append(errs, ValidateUpload(req.GarmentImage, "garment image", maxSize, formats)...)
	switch req.Options.GarmentCategory {
	case "", GarmentUpperBody, GarmentLowerBody, GarmentDresses:
	default:
		errs = append(errs, fmt.Sprintf("unsupported garment category %q", req.Options.GarmentCategory))
	}
	return newResult(errs)
}

// ValidateDecorRequest checks a decor request against the given limits
func ValidateDecorRequest(req *DecorRequest, maxSize int64, formats []string) ValidationResult {
	if req == nil {
		return newResult([]string{"request is required"})
	}
	var errs []string
	errs = append(errs, ValidateUpload(req.RoomImage, "room image", maxSize, formats)...)
	switch {
	case len(req.DecorItems) == 0:
		errs = append(errs, "at least one decor item is required")
	case len(req.DecorItems) > MaxDecorItems:
		errs = append(errs, fmt.Sprintf("at most %d decor items are allowed", MaxDecorItems))
	}
	for i, item := range req.DecorItems {
		errs = append(errs, ValidateUpload(item, fmt.Sprintf("decor item %d", i+1), maxSize, formats)...)
	}
	return newResult(errs)
}

// ValidateSizingRequest checks a sizing request against the given limits
func ValidateSizingRequest(req *SizingRequest, maxSize int64, formats []string) ValidationResult {
	if req == nil {
		return newResult([]string{"request is required"})
	}
	var errs []string
	errs = append(errs, ValidateUpload(req.FrontImage, "front image", maxSize, formats)...)
	errs = append(errs, ValidateUpload(req.SideImage, "side image", maxSize, formats)...)
	if h := req.Options.HeightCM; h != 0 && (h < minHeightCM || h > maxHeightCM) {
		errs = append(errs, fmt.Sprintf("height must be between %d and %d cm", minHeightCM, maxHeightCM))
	}
	return newResult(errs)
}

func supportsFormat(formats []string, mimeType string) bool {
	for _, f := range formats {
		if strings.EqualFold(f, mimeType) {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	if n >= MB {
		return fmt.Sprintf("%.1fMB", float64(n)/float64(MB))
	}
	return fmt.Sprintf("%dKB", n/1024)
}
