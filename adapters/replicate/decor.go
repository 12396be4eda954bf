package replicate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// DecorName is the display name of the decor adapter
	DecorName = "Replicate Decor Visualization"

	// DefaultDecorModelVersion is adirik/interior-design
	DefaultDecorModelVersion = "76604baddc85b1b4616e1c6475eca080da339c8875bd4996705440484a6eac38"

	decorMaxFileSize = 15 * adapters.MB
)

// Decor implements adapters.DecorVisualization on an interior design model
type Decor struct {
	*client
}

var _ adapters.DecorVisualization = (*Decor)(nil)

// NewDecor creates the decor adapter. id is the provider identifier.
func NewDecor(id string, cfg adapters.ProviderConfig, opts adapters.Options) (*Decor, error) {
	c, err := newClient(id, cfg, DefaultDecorModelVersion, opts)
	if err != nil {
		return nil, err
	}
	return &Decor{client: c}, nil
}

// Name returns the provider name
func (d *Decor) Name() string { return DecorName }

// Version returns the adapter version
func (d *Decor) Version() string { return version }

// SupportedFormats returns the accepted image formats
func (d *Decor) SupportedFormats() []string {
	return append([]string{}, adapters.ImageFormats...)
}

// MaxFileSize returns the largest accepted upload
func (d *Decor) MaxFileSize() int64 {
	return decorMaxFileSize
}

// IsAvailable reports whether the Replicate account endpoint answers
func (d *Decor) IsAvailable(ctx context.Context) bool {
	return d.available(ctx)
}

// GetProcessingStatus returns the current state of a prediction
func (d *Decor) GetProcessingStatus(ctx context.Context, jobID string) (*adapters.ProcessingStatus, error) {
	return d.status(ctx, jobID)
}

// ValidateRequest checks the request without contacting Replicate
func (d *Decor) ValidateRequest(req *adapters.DecorRequest) adapters.ValidationResult {
	return adapters.ValidateDecorRequest(req, d.MaxFileSize(), adapters.ImageFormats)
}

// Visualize restyles the room around the requested decor items
func (d *Decor) Visualize(ctx context.Context, req *adapters.DecorRequest) *adapters.Response[adapters.DecorResult] {
	if v := d.ValidateRequest(req); !v.Valid {
		return adapters.Fail[adapters.DecorResult](v.Err())
	}
	start := time.Now()

	room, err := d.mediaInput(ctx, req.RoomImage)
	if err != nil {
		return adapters.Fail[adapters.DecorResult](err)
	}

	status, err := d.run(ctx, "visualize", map[string]interface{}{
		"image":  room,
		"prompt": decorPrompt(req),
	})
	if err != nil {
		return adapters.Fail[adapters.DecorResult](err)
	}

	return adapters.Succeed(adapters.DecorResult{
		JobID:          status.ID,
		ResultImageURL: status.ResultURL,
		Provider:       DecorName,
		ProcessingTime: time.Since(start),
	})
}

// decorPrompt describes the target room; the model takes text, not item images
func decorPrompt(req *adapters.DecorRequest) string {
	if req.Options.Prompt != "" {
		return req.Options.Prompt
	}

	items := make([]string, 0, len(req.DecorItems))
	for _, item := range req.DecorItems {
		items = append(items, itemLabel(item))
	}

	style := req.Options.Style
	if style == "" {
		style = "modern"
	}
	roomType := req.Options.RoomType
	if roomType == "" {
		roomType = "living room"
	}

	prompt := fmt.Sprintf("a %s %s featuring %s", style, roomType, strings.Join(items, ", "))
	if req.Options.Placement != "" {
		prompt += ", placed " + req.Options.Placement
	}
	return prompt + ", photorealistic, interior design"
}

func itemLabel(m *adapters.MediaUpload) string {
	name := strings.TrimSuffix(m.Name, filepath.Ext(m.Name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	if name == "" {
		return "a decor item"
	}
	return name
}
