package styleai

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors
var (
	ErrUnsupportedProvider      = errors.New("unsupported provider")
	ErrUnknownCategory          = errors.New("unknown category")
	ErrProviderCategoryMismatch = errors.New("provider does not serve category")
	ErrMissingProviderConfig    = errors.New("missing provider configuration")
)

// categoryMismatch reports a provider requested for the wrong category
func categoryMismatch(category Category, id ProviderID) error {
	return fmt.Errorf("%w: %s belongs to %s, not %s", ErrProviderCategoryMismatch, id, id.Category(), category)
}
