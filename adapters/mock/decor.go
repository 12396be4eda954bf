package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// DecorName is the display name of the mock decor adapter
	DecorName = "Mock Decor Visualization"

	// DefaultDecorDelay is the artificial visualization latency
	DefaultDecorDelay = 2 * time.Second

	decorPlaceholder = "https://placehold.co/1024x768/png?text=Decor+Preview"
)

// Decor implements adapters.DecorVisualization without any network I/O
type Decor struct {
	base
}

var _ adapters.DecorVisualization = (*Decor)(nil)

// NewDecor creates the mock decor adapter
func NewDecor(cfg adapters.ProviderConfig, opts adapters.Options) *Decor {
	return &Decor{base: newBase(DecorName, cfg, DefaultDecorDelay, opts)}
}

// ValidateRequest checks the room and decor item uploads
func (d *Decor) ValidateRequest(req *adapters.DecorRequest) adapters.ValidationResult {
	return adapters.ValidateDecorRequest(req, d.MaxFileSize(), d.SupportedFormats())
}

// Visualize spreads the items evenly across the room after the artificial delay
func (d *Decor) Visualize(ctx context.Context, req *adapters.DecorRequest) *adapters.Response[adapters.DecorResult] {
	start := time.Now()
	if err := d.sleep(ctx); err != nil {
		return adapters.Fail[adapters.DecorResult](err)
	}

	var (
		room  *adapters.MediaUpload
		items []*adapters.MediaUpload
	)
	if req != nil {
		room = req.RoomImage
		items = req.DecorItems
	}

	placements := make([]adapters.Placement, 0, len(items))
	for i, item := range items {
		name := fmt.Sprintf("item-%d", i+1)
		if item != nil && item.Name != "" {
			name = item.Name
		}
		placements = append(placements, adapters.Placement{
			Item:       name,
			X:          float64(i+1) / float64(len(items)+1),
			Y:          0.6,
			Scale:      1,
			Confidence: 0.9,
		})
	}

	return adapters.Succeed(adapters.DecorResult{
		JobID:          uuid.NewString(),
		ResultImageURL: previewOr(room, decorPlaceholder),
		Provider:       DecorName,
		ProcessingTime: time.Since(start),
		Placements:     placements,
	})
}
