package styleai

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/feitianbubu/styleai/adapters"
	"github.com/feitianbubu/styleai/telemetry"
)

// Manager decides which provider serves each category and hands out adapters.
// It is the only type callers need.
type Manager struct {
	config  *Config
	factory *Factory
	logger  *zap.Logger
	metrics *telemetry.Metrics

	mu     sync.RWMutex
	active map[Category]ProviderID
}

// Option configures a Manager
type Option func(*managerOptions)

type managerOptions struct {
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	httpClient *http.Client
	factory    *Factory
}

// WithLogger sets the logger handed to the manager and every adapter
func WithLogger(logger *zap.Logger) Option {
	return func(o *managerOptions) { o.logger = logger }
}

// WithMetrics enables Prometheus metrics
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *managerOptions) { o.metrics = m }
}

// WithHTTPClient sets the HTTP client used by vendor adapters
func WithHTTPClient(c *http.Client) Option {
	return func(o *managerOptions) { o.httpClient = c }
}

// WithFactory replaces the default factory, e.g. to register custom constructors
func WithFactory(f *Factory) Option {
	return func(o *managerOptions) { o.factory = f }
}

// NewManager creates a manager over cfg. Configuration warnings and misconfigured
// active providers are logged here, before any adapter is built.
func NewManager(cfg *Config, opts ...Option) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var o managerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	factory := o.factory
	if factory == nil {
		factory = NewFactory(cfg, adapters.Options{
			Logger:     o.logger,
			Metrics:    o.metrics,
			HTTPClient: o.httpClient,
		})
	}

	m := &Manager{
		config:  cfg,
		factory: factory,
		logger:  o.logger.Named("manager"),
		metrics: o.metrics,
		active:  make(map[Category]ProviderID, len(Categories)),
	}

	for _, category := range Categories {
		id, ok := cfg.Active[category]
		if !ok || id.Category() != category {
			id = MockFor(category)
		}
		m.active[category] = id
	}

	for _, w := range cfg.Warnings {
		m.logger.Warn("configuration warning", zap.String("warning", w))
	}
	for _, category := range Categories {
		id := m.active[category]
		if err := cfg.ValidateProvider(id); err != nil {
			m.logger.Warn("active provider is misconfigured, its category will use the mock",
				zap.String("category", string(category)),
				zap.String("provider", string(id)),
				zap.Error(err),
			)
		}
	}

	return m
}

// Config returns the configuration the manager was built with
func (m *Manager) Config() *Config {
	return m.config
}

// Factory returns the underlying factory
func (m *Manager) Factory() *Factory {
	return m.factory
}

// ActiveProvider returns the provider currently selected for category
func (m *Manager) ActiveProvider(category Category) ProviderID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[category]
}

// ActiveProviders returns a copy of the active providers map
func (m *Manager) ActiveProviders() map[Category]ProviderID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[Category]ProviderID, len(m.active))
	for k, v := range m.active {
		out[k] = v
	}
	return out
}

// ActiveServices holds one adapter per category
type ActiveServices struct {
	ClothingTryOn      adapters.ClothingTryOn
	DecorVisualization adapters.DecorVisualization
	AISizing           adapters.AISizing
}

// GetActiveServices resolves the active provider of every category without fallback
func (m *Manager) GetActiveServices() (*ActiveServices, error) {
	clothing, err := resolve[adapters.ClothingTryOn](m, CategoryClothingTryOn)
	if err != nil {
		return nil, err
	}
	decor, err := resolve[adapters.DecorVisualization](m, CategoryDecorVisualization)
	if err != nil {
		return nil, err
	}
	sizing, err := resolve[adapters.AISizing](m, CategoryAISizing)
	if err != nil {
		return nil, err
	}
	return &ActiveServices{
		ClothingTryOn:      clothing,
		DecorVisualization: decor,
		AISizing:           sizing,
	}, nil
}

// ClothingTryOnService returns the active try-on adapter, or the mock when the
// active provider cannot be constructed
func (m *Manager) ClothingTryOnService() (adapters.ClothingTryOn, error) {
	return resolveWithFallback[adapters.ClothingTryOn](m, CategoryClothingTryOn)
}

// DecorVisualizationService returns the active decor adapter, or the mock when
// the active provider cannot be constructed
func (m *Manager) DecorVisualizationService() (adapters.DecorVisualization, error) {
	return resolveWithFallback[adapters.DecorVisualization](m, CategoryDecorVisualization)
}

// AISizingService returns the active sizing adapter, or the mock when the active
// provider cannot be constructed
func (m *Manager) AISizingService() (adapters.AISizing, error) {
	return resolveWithFallback[adapters.AISizing](m, CategoryAISizing)
}

func resolve[T adapters.Service](m *Manager, category Category) (T, error) {
	id := m.ActiveProvider(category)
	svc, err := m.factory.Get(category, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](svc, id)
}

func resolveWithFallback[T adapters.Service](m *Manager, category Category) (T, error) {
	id := m.ActiveProvider(category)
	svc, err := m.factory.GetWithFallback(category, id, MockFor(category))
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](svc, id)
}

// SwitchProvider selects id for category and clears the factory cache, so every
// category is resolved again on next use. Calls already holding an adapter keep it.
func (m *Manager) SwitchProvider(category Category, id ProviderID) error {
	if !category.Valid() {
		return ErrUnknownCategory
	}
	id, err := ParseProviderID(string(id))
	if err != nil {
		return err
	}
	if id.Category() != category {
		return categoryMismatch(category, id)
	}

	m.mu.Lock()
	previous := m.active[category]
	m.active[category] = id
	m.mu.Unlock()

	m.factory.ClearCache()
	m.metrics.IncSwitch(string(category), string(id))

	m.logger.Info("provider switched",
		zap.String("category", string(category)),
		zap.String("from", string(previous)),
		zap.String("to", string(id)),
	)
	if err := m.config.ValidateProvider(id); err != nil {
		m.logger.Warn("switched to a misconfigured provider, its category will use the mock",
			zap.String("provider", string(id)),
			zap.Error(err),
		)
	}
	return nil
}

// CheckServiceHealth probes the active adapter of every category concurrently.
// A provider that cannot be resolved is reported unhealthy.
func (m *Manager) CheckServiceHealth(ctx context.Context) map[Category]bool {
	active := m.ActiveProviders()

	var (
		mu     sync.Mutex
		health = make(map[Category]bool, len(Categories))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range Categories {
		category := category
		id := active[category]
		g.Go(func() error {
			ok := m.probe(gctx, category, id)

			mu.Lock()
			health[category] = ok
			mu.Unlock()

			m.metrics.SetAvailable(string(category), string(id), ok)
			return nil
		})
	}
	_ = g.Wait()

	return health
}

func (m *Manager) probe(ctx context.Context, category Category, id ProviderID) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("availability probe panicked",
				zap.String("provider", string(id)),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	svc, err := m.factory.Get(category, id)
	if err != nil {
		m.logger.Debug("provider unresolvable during health check",
			zap.String("provider", string(id)),
			zap.Error(err),
		)
		return false
	}
	return svc.IsAvailable(ctx)
}

// ProviderInfo describes the adapter behind one category
type ProviderInfo struct {
	Provider ProviderID `json:"provider"`
	Name     string     `json:"name,omitempty"`
	Version  string     `json:"version,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// ServiceInfo is a read-only snapshot of the active providers
type ServiceInfo struct {
	Active   map[Category]ProviderID   `json:"active"`
	Services map[Category]ProviderInfo `json:"services"`
}

// ServiceInfo resolves every active provider and reports its name and version
func (m *Manager) ServiceInfo() ServiceInfo {
	active := m.ActiveProviders()
	info := ServiceInfo{
		Active:   active,
		Services: make(map[Category]ProviderInfo, len(active)),
	}

	for _, category := range Categories {
		id := active[category]
		pi := ProviderInfo{Provider: id}
		svc, err := m.factory.Get(category, id)
		if err != nil {
			pi.Error = err.Error()
		} else {
			pi.Name = svc.Name()
			pi.Version = svc.Version()
		}
		info.Services[category] = pi
	}
	return info
}

// ConfigReport aggregates configuration problems of the active providers
type ConfigReport struct {
	Valid    bool                  `json:"valid"`
	Errors   map[Category][]string `json:"errors,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// Messages flattens the report's errors in category order
func (r ConfigReport) Messages() []string {
	var msgs []string
	for _, category := range Categories {
		msgs = append(msgs, r.Errors[category]...)
	}
	return msgs
}

// ValidateConfiguration checks the configuration of every active provider.
// Mock providers are always valid.
func (m *Manager) ValidateConfiguration() ConfigReport {
	report := ConfigReport{
		Valid:    true,
		Errors:   make(map[Category][]string),
		Warnings: append([]string(nil), m.config.Warnings...),
	}

	for category, id := range m.ActiveProviders() {
		err := m.config.ValidateProvider(id)
		if err == nil {
			continue
		}
		report.Valid = false

		var msgs []string
		if ces, ok := err.(adapters.ConfigErrors); ok {
			for _, ce := range ces {
				msgs = append(msgs, ce.Error())
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		report.Errors[category] = msgs
	}
	return report
}
