package styleai

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/adapters"
	"github.com/feitianbubu/styleai/adapters/kling"
	"github.com/feitianbubu/styleai/adapters/mock"
	"github.com/feitianbubu/styleai/adapters/replicate"
	"github.com/feitianbubu/styleai/telemetry"
)

// Constructor builds an adapter from its provider configuration
type Constructor func(id ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error)

// builtinConstructors covers every known provider
func builtinConstructors() map[ProviderID]Constructor {
	return map[ProviderID]Constructor{
		ProviderKling: func(id ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
			return kling.New(string(id), cfg, opts)
		},
		ProviderReplicateTryOn: func(id ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
			return replicate.NewTryOn(string(id), cfg, opts)
		},
		ProviderReplicateDecor: func(id ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
			return replicate.NewDecor(string(id), cfg, opts)
		},
		ProviderMockClothing: func(_ ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
			return mock.NewClothing(cfg, opts), nil
		},
		ProviderMockDecor: func(_ ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
			return mock.NewDecor(cfg, opts), nil
		},
		ProviderMockSizing: func(_ ProviderID, cfg adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
			return mock.NewSizing(cfg, opts), nil
		},
	}
}

// Factory constructs adapters and caches them by provider identifier
type Factory struct {
	config  *Config
	opts    adapters.Options
	logger  *zap.Logger
	metrics *telemetry.Metrics

	mu           sync.Mutex
	constructors map[ProviderID]Constructor
	cache        map[ProviderID]adapters.Service
}

// NewFactory creates a factory with every built-in provider registered
func NewFactory(cfg *Config, opts adapters.Options) *Factory {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts = opts.WithDefaults()
	return &Factory{
		config:       cfg,
		opts:         opts,
		logger:       opts.Logger.Named("factory"),
		metrics:      opts.Metrics,
		constructors: builtinConstructors(),
		cache:        make(map[ProviderID]adapters.Service),
	}
}

// Register replaces the constructor of a provider and evicts its cached instance
func (f *Factory) Register(id ProviderID, c Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[id] = c
	delete(f.cache, id)
}

// Get returns the cached adapter for id, constructing it on first use
func (f *Factory) Get(category Category, id ProviderID) (adapters.Service, error) {
	if !id.Valid() {
		return nil, errors.Wrapf(ErrUnsupportedProvider, "%q", id)
	}
	if id.Category() != category {
		return nil, categoryMismatch(category, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if svc, ok := f.cache[id]; ok {
		return svc, nil
	}

	construct, ok := f.constructors[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedProvider, "no constructor for %s", id)
	}

	cfg, ok := f.config.Provider(id)
	if !ok && !id.IsMock() {
		return nil, errors.Wrapf(ErrMissingProviderConfig, "%s", id)
	}
	if err := f.config.ValidateProvider(id); err != nil {
		return nil, err
	}

	svc, err := construct(id, cfg, f.opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", id)
	}

	f.cache[id] = svc
	f.logger.Debug("adapter created",
		zap.String("provider", string(id)),
		zap.String("name", svc.Name()),
	)
	return svc, nil
}

// GetWithFallback resolves primary and substitutes fallback when primary cannot be
// constructed. Failures of a constructed adapter at call time are not covered.
func (f *Factory) GetWithFallback(category Category, primary, fallback ProviderID) (adapters.Service, error) {
	svc, err := f.Get(category, primary)
	if err == nil {
		return svc, nil
	}

	f.logger.Warn("provider unavailable, falling back",
		zap.String("category", string(category)),
		zap.String("primary", string(primary)),
		zap.String("fallback", string(fallback)),
		zap.Error(err),
	)
	f.metrics.IncFallback(string(category), string(primary), string(fallback))

	svc, ferr := f.Get(category, fallback)
	if ferr != nil {
		return nil, errors.Wrapf(ferr, "fallback %s after %s failed (%v)", fallback, primary, err)
	}
	return svc, nil
}

// ClearCache drops every cached adapter
func (f *Factory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[ProviderID]adapters.Service)
}

// Cached reports whether an adapter for id is cached
func (f *Factory) Cached(id ProviderID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cache[id]
	return ok
}

// as narrows a resolved adapter to its capability interface
func as[T adapters.Service](svc adapters.Service, id ProviderID) (T, error) {
	typed, ok := svc.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s does not implement %T", ErrProviderCategoryMismatch, id, (*T)(nil))
	}
	return typed, nil
}
