package styleai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feitianbubu/styleai/adapters"
	"github.com/feitianbubu/styleai/adapters/kling"
	"github.com/feitianbubu/styleai/adapters/mock"
	"github.com/feitianbubu/styleai/telemetry"
)

func allTrue() map[Category]bool {
	return map[Category]bool{
		CategoryClothingTryOn:      true,
		CategoryDecorVisualization: true,
		CategoryAISizing:           true,
	}
}

func TestClothingFallsBackWithoutKlingKey(t *testing.T) {
	cfg := fastConfig()
	cfg.Active[CategoryClothingTryOn] = ProviderKling

	m := NewManager(cfg, WithLogger(zaptest.NewLogger(t)))
	assert.Equal(t, ProviderKling, m.ActiveProvider(CategoryClothingTryOn))

	svc, err := m.ClothingTryOnService()
	require.NoError(t, err)
	assert.Equal(t, mock.ClothingName, svc.Name())
	assert.NotEqual(t, kling.ProviderName, svc.Name())

	resp := svc.TryOn(context.Background(), &adapters.TryOnRequest{})
	assert.True(t, resp.Success)
}

func TestGetActiveServicesDoesNotFallBack(t *testing.T) {
	cfg := fastConfig()
	m := NewManager(cfg)

	services, err := m.GetActiveServices()
	require.NoError(t, err)
	assert.Equal(t, mock.ClothingName, services.ClothingTryOn.Name())
	assert.Equal(t, mock.DecorName, services.DecorVisualization.Name())
	assert.Equal(t, mock.SizingName, services.AISizing.Name())

	require.NoError(t, m.SwitchProvider(CategoryClothingTryOn, ProviderKling))
	_, err = m.GetActiveServices()
	assert.True(t, errors.Is(err, adapters.ErrInvalidConfiguration))
}

func TestHealthWithMocks(t *testing.T) {
	m := NewManager(fastConfig())

	assert.Equal(t, allTrue(), m.CheckServiceHealth(context.Background()))
	assert.Equal(t, allTrue(), m.CheckServiceHealth(context.Background()))
}

func TestHealthReportsUnresolvableAndUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := fastConfig()
	rc := cfg.Providers[ProviderReplicateDecor]
	rc.APIKey = "r8_key"
	rc.BaseURL = srv.URL
	cfg.Providers[ProviderReplicateDecor] = rc
	cfg.Active[CategoryClothingTryOn] = ProviderKling
	cfg.Active[CategoryDecorVisualization] = ProviderReplicateDecor

	reg := prometheus.NewRegistry()
	m := NewManager(cfg, WithMetrics(telemetry.NewMetrics(reg)))

	health := m.CheckServiceHealth(context.Background())
	assert.Equal(t, map[Category]bool{
		CategoryClothingTryOn:      false,
		CategoryDecorVisualization: false,
		CategoryAISizing:           true,
	}, health)

	count, err := testutil.GatherAndCount(reg, "styleai_provider_available")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// panickyClothing is a try-on adapter whose probe blows up
type panickyClothing struct {
	*mock.Clothing
}

func (p *panickyClothing) IsAvailable(context.Context) bool {
	panic("probe exploded")
}

func TestHealthSurvivesPanickingProbe(t *testing.T) {
	cfg := fastConfig()
	f := NewFactory(cfg, adapters.Options{})
	f.Register(ProviderMockClothing, func(_ ProviderID, pc adapters.ProviderConfig, opts adapters.Options) (adapters.Service, error) {
		return &panickyClothing{Clothing: mock.NewClothing(pc, opts)}, nil
	})

	m := NewManager(cfg, WithFactory(f))
	health := m.CheckServiceHealth(context.Background())

	assert.False(t, health[CategoryClothingTryOn])
	assert.True(t, health[CategoryAISizing])
}

func TestSwitchProviderClearsCache(t *testing.T) {
	cfg := fastConfig()
	reg := prometheus.NewRegistry()
	m := NewManager(cfg, WithMetrics(telemetry.NewMetrics(reg)))

	before, err := m.Factory().Get(CategoryClothingTryOn, ProviderMockClothing)
	require.NoError(t, err)
	sizing, err := m.AISizingService()
	require.NoError(t, err)

	require.NoError(t, m.SwitchProvider(CategoryClothingTryOn, ProviderKling))
	assert.Equal(t, ProviderKling, m.ActiveProvider(CategoryClothingTryOn))
	assert.False(t, m.Factory().Cached(ProviderMockSizing))

	after, err := m.Factory().Get(CategoryClothingTryOn, ProviderMockClothing)
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	sizingAfter, err := m.AISizingService()
	require.NoError(t, err)
	assert.NotSame(t, sizing, sizingAfter)

	count, err := testutil.GatherAndCount(reg, "styleai_provider_switches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSwitchProviderRejectsInvalidSelections(t *testing.T) {
	m := NewManager(fastConfig())

	err := m.SwitchProvider(CategoryDecorVisualization, ProviderKling)
	assert.True(t, errors.Is(err, ErrProviderCategoryMismatch))

	err = m.SwitchProvider(CategoryClothingTryOn, "vidu")
	assert.True(t, errors.Is(err, ErrUnsupportedProvider))

	err = m.SwitchProvider("jewelry", ProviderKling)
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	assert.Equal(t, ProviderMockDecor, m.ActiveProvider(CategoryDecorVisualization))
	assert.Equal(t, ProviderMockClothing, m.ActiveProvider(CategoryClothingTryOn))
}

func TestSwitchToConfiguredVendor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "data": []interface{}{}}) //nolint:errcheck
	}))
	defer srv.Close()

	cfg := fastConfig()
	kc := cfg.Providers[ProviderKling]
	kc.BaseURL = srv.URL
	kc.APIKey = "ak,sk"
	cfg.Providers[ProviderKling] = kc

	m := NewManager(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, m.SwitchProvider(CategoryClothingTryOn, ProviderKling))

	svc, err := m.ClothingTryOnService()
	require.NoError(t, err)
	assert.Equal(t, kling.ProviderName, svc.Name())
	assert.True(t, m.CheckServiceHealth(context.Background())[CategoryClothingTryOn])
}

func TestSizingServiceReturnsCannedHeight(t *testing.T) {
	m := NewManager(fastConfig())
	require.Equal(t, ProviderMockSizing, m.ActiveProvider(CategoryAISizing))

	svc, err := m.AISizingService()
	require.NoError(t, err)

	photo := func(name string) *adapters.MediaUpload {
		return &adapters.MediaUpload{Name: name, MIMEType: "image/jpeg", Size: adapters.MB}
	}
	resp := svc.AnalyzeMeasurements(context.Background(), &adapters.SizingRequest{
		FrontImage: photo("front.jpg"),
		SideImage:  photo("side.jpg"),
	})

	require.True(t, resp.Success)
	assert.Equal(t, 170.0, resp.Data.Measurements.Height)
}

func TestDecorServiceFallsBack(t *testing.T) {
	cfg := fastConfig()
	cfg.Active[CategoryDecorVisualization] = ProviderReplicateDecor

	svc, err := NewManager(cfg).DecorVisualizationService()
	require.NoError(t, err)
	assert.Equal(t, mock.DecorName, svc.Name())
}

func TestValidateConfiguration(t *testing.T) {
	cfg := fastConfig()
	m := NewManager(cfg)

	report := m.ValidateConfiguration()
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)

	require.NoError(t, m.SwitchProvider(CategoryClothingTryOn, ProviderKling))
	require.NoError(t, m.SwitchProvider(CategoryDecorVisualization, ProviderReplicateDecor))

	report = m.ValidateConfiguration()
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"kling: API key is required"}, report.Errors[CategoryClothingTryOn])
	assert.Equal(t, []string{"replicate-decor: API key is required"}, report.Errors[CategoryDecorVisualization])
	assert.Empty(t, report.Errors[CategoryAISizing])
	assert.Equal(t, []string{
		"kling: API key is required",
		"replicate-decor: API key is required",
	}, report.Messages())
}

func TestServiceInfo(t *testing.T) {
	cfg := fastConfig()
	cfg.Active[CategoryClothingTryOn] = ProviderKling
	m := NewManager(cfg)

	info := m.ServiceInfo()
	assert.Equal(t, ProviderKling, info.Active[CategoryClothingTryOn])

	clothing := info.Services[CategoryClothingTryOn]
	assert.Equal(t, ProviderKling, clothing.Provider)
	assert.Empty(t, clothing.Name)
	assert.Contains(t, clothing.Error, "API key is required")

	sizing := info.Services[CategoryAISizing]
	assert.Equal(t, mock.SizingName, sizing.Name)
	assert.NotEmpty(t, sizing.Version)
	assert.Empty(t, sizing.Error)
}

func TestNewManagerLogsConfigurationProblems(t *testing.T) {
	cfg, err := LoadConfigFrom("", env(map[string]string{
		"CLOTHING_TRYON_PROVIDER": "kling",
		"AI_SIZING_PROVIDER":      "replicate-tryon",
	}))
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	m := NewManager(cfg, WithLogger(zap.New(core)))

	assert.Equal(t, ProviderMockSizing, m.ActiveProvider(CategoryAISizing))
	assert.Equal(t, 1, logs.FilterMessage("configuration warning").Len())

	misconfigured := logs.FilterMessage("active provider is misconfigured, its category will use the mock").All()
	require.Len(t, misconfigured, 1)
	assert.Equal(t, "kling", misconfigured[0].ContextMap()["provider"])
}

func TestActiveProvidersIsACopy(t *testing.T) {
	m := NewManager(fastConfig())
	active := m.ActiveProviders()
	active[CategoryClothingTryOn] = ProviderKling

	assert.Equal(t, ProviderMockClothing, m.ActiveProvider(CategoryClothingTryOn))
}
