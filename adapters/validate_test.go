package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpeg(name string, size int64) *MediaUpload {
	return &MediaUpload{
		Name:     name,
		MIMEType: "image/jpeg",
		Kind:     MediaKindImage,
		Size:     size,
		Data:     []byte{0xff, 0xd8, 0xff},
	}
}

func TestValidateTryOnRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *TryOnRequest
		valid    bool
		contains string
	}{
		{
			name:  "valid",
			req:   &TryOnRequest{PersonImage: jpeg("p.jpg", MB), GarmentImage: jpeg("g.jpg", MB)},
			valid: true,
		},
		{
			name:     "nil request",
			req:      nil,
			contains: "request is required",
		},
		{
			name:     "missing garment",
			req:      &TryOnRequest{PersonImage: jpeg("p.jpg", MB)},
			contains: "garment image is required",
		},
		{
			name:     "oversized person image",
			req:      &TryOnRequest{PersonImage: jpeg("p.jpg", 15*MB), GarmentImage: jpeg("g.jpg", MB)},
			contains: "exceeds maximum file size",
		},
		{
			name: "unsupported format",
			req: &TryOnRequest{
				PersonImage:  &MediaUpload{Name: "p.gif", MIMEType: "image/gif", Size: 10},
				GarmentImage: jpeg("g.jpg", MB),
			},
			contains: "unsupported format",
		},
		{
			name: "empty upload",
			req: &TryOnRequest{
				PersonImage:  &MediaUpload{Name: "p.jpg", MIMEType: "image/jpeg"},
				GarmentImage: jpeg("g.jpg", MB),
			},
			contains: "person image is empty",
		},
		{
			name: "unknown garment category",
			req: &TryOnRequest{
				PersonImage:  jpeg("p.jpg", MB),
				GarmentImage: jpeg("g.jpg", MB),
				Options:      TryOnOptions{GarmentCategory: "hats"},
			},
			contains: "unsupported garment category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateTryOnRequest(tt.req, DefaultMaxFileSize, ImageFormats)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
				assert.NoError(t, result.Err())
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Err().Error(), tt.contains)
		})
	}
}

func TestValidateUploadSizeMessage(t *testing.T) {
	errs := ValidateUpload(jpeg("p.jpg", 15*MB), "person image", 10*MB, ImageFormats)
	require.Len(t, errs, 1)
	assert.Equal(t, "person image exceeds maximum file size of 10.0MB (got 15.0MB)", errs[0])
}

func TestValidateUploadMeasuresPayload(t *testing.T) {
	m := &MediaUpload{Name: "p.jpg", MIMEType: "image/jpeg", Size: 1024, Data: make([]byte, 15*MB)}
	assert.Equal(t, 15*MB, m.Len())

	errs := ValidateUpload(m, "person image", 10*MB, ImageFormats)
	assert.Equal(t, []string{"person image exceeds maximum file size of 10.0MB (got 15.0MB)"}, errs)

	result := ValidateTryOnRequest(&TryOnRequest{PersonImage: m, GarmentImage: jpeg("g.jpg", MB)}, DefaultMaxFileSize, ImageFormats)
	assert.False(t, result.Valid)
}

func TestValidateDecorRequest(t *testing.T) {
	room := jpeg("room.jpg", MB)

	result := ValidateDecorRequest(&DecorRequest{RoomImage: room}, DefaultMaxFileSize, ImageFormats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "at least one decor item is required")

	items := make([]*MediaUpload, MaxDecorItems+1)
	for i := range items {
		items[i] = jpeg("lamp.jpg", 100)
	}
	result = ValidateDecorRequest(&DecorRequest{RoomImage: room, DecorItems: items}, DefaultMaxFileSize, ImageFormats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "at most 5 decor items are allowed")

	result = ValidateDecorRequest(&DecorRequest{RoomImage: room, DecorItems: items[:2]}, DefaultMaxFileSize, ImageFormats)
	assert.True(t, result.Valid)
}

func TestValidateSizingRequest(t *testing.T) {
	req := &SizingRequest{FrontImage: jpeg("front.jpg", MB), SideImage: jpeg("side.jpg", MB)}
	assert.True(t, ValidateSizingRequest(req, DefaultMaxFileSize, ImageFormats).Valid)

	req.Options.HeightCM = 300
	result := ValidateSizingRequest(req, DefaultMaxFileSize, ImageFormats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "height must be between 50 and 250 cm")

	req.SideImage = nil
	req.Options.HeightCM = 180
	result = ValidateSizingRequest(req, DefaultMaxFileSize, ImageFormats)
	assert.Equal(t, []string{"side image is required"}, result.Errors)
}

func TestValidationErrIsValidationKind(t *testing.T) {
	result := ValidateTryOnRequest(nil, DefaultMaxFileSize, ImageFormats)
	assert.Equal(t, ErrorKindValidation, Classify(result.Err()))
}
