package styleai

import (
	"fmt"
	"strings"
)

// Category is a capability category
type Category string

const (
	CategoryClothingTryOn      Category = "clothingTryOn"
	CategoryDecorVisualization Category = "decorVisualization"
	CategoryAISizing           Category = "aiSizing"
)

// Categories lists every capability category in a fixed order
var Categories = []Category{
	CategoryClothingTryOn,
	CategoryDecorVisualization,
	CategoryAISizing,
}

func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryClothingTryOn, CategoryDecorVisualization, CategoryAISizing:
		return true
	}
	return false
}

// ParseCategory accepts the canonical name or its env-style spelling
// (e.g. "clothing_tryon", "CLOTHING-TRYON")
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
	for _, c := range Categories {
		if strings.ToLower(string(c)) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ProviderID names a vendor integration or a mock
type ProviderID string

const (
	ProviderKling          ProviderID = "kling"
	ProviderReplicateTryOn ProviderID = "replicate-tryon"
	ProviderMockClothing   ProviderID = "mock-clothing"
	ProviderReplicateDecor ProviderID = "replicate-decor"
	ProviderMockDecor      ProviderID = "mock-decor"
	ProviderMockSizing     ProviderID = "mock-sizing"
)

// providerCategories partitions the providers by category
var providerCategories = map[ProviderID]Category{
	ProviderKling:          CategoryClothingTryOn,
	ProviderReplicateTryOn: CategoryClothingTryOn,
	ProviderMockClothing:   CategoryClothingTryOn,
	ProviderReplicateDecor: CategoryDecorVisualization,
	ProviderMockDecor:      CategoryDecorVisualization,
	ProviderMockSizing:     CategoryAISizing,
}

// mockProviders holds the terminal fallback of each category
var mockProviders = map[Category]ProviderID{
	CategoryClothingTryOn:      ProviderMockClothing,
	CategoryDecorVisualization: ProviderMockDecor,
	CategoryAISizing:           ProviderMockSizing,
}

func (p ProviderID) String() string {
	return string(p)
}

// Category returns the category p belongs to, or "" for unknown providers
func (p ProviderID) Category() Category {
	return providerCategories[p]
}

// IsMock reports whether p is a mock provider
func (p ProviderID) IsMock() bool {
	c, ok := providerCategories[p]
	return ok && mockProviders[c] == p
}

// Valid reports whether p is a known provider
func (p ProviderID) Valid() bool {
	_, ok := providerCategories[p]
	return ok
}

// ParseProviderID validates s as a provider identifier
func ParseProviderID(s string) (ProviderID, error) {
	p := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
	return p, nil
}

// MockFor returns the mock provider of a category
func MockFor(c Category) ProviderID {
	return mockProviders[c]
}

// ProvidersFor lists the providers of a category, mock last
func ProvidersFor(c Category) []ProviderID {
	var ids []ProviderID
	for _, p := range []ProviderID{
		ProviderKling, ProviderReplicateTryOn, ProviderReplicateDecor,
	} {
		if p.Category() == c {
			ids = append(ids, p)
		}
	}
	if m := MockFor(c); m != "" {
		ids = append(ids, m)
	}
	return ids
}
