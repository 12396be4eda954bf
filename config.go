package styleai

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/feitianbubu/styleai/adapters"
	"github.com/feitianbubu/styleai/adapters/kling"
	"github.com/feitianbubu/styleai/adapters/mock"
	"github.com/feitianbubu/styleai/adapters/replicate"
)

// ConfigPathEnv names the optional YAML overlay
const ConfigPathEnv = "STYLEAI_CONFIG"

const (
	defaultVendorTimeout = 60 * time.Second
	defaultMockTimeout   = 30 * time.Second
	defaultRetryAttempts = 3
)

// envPrefixes maps each vendor provider to its environment variable prefix
var envPrefixes = map[ProviderID]string{
	ProviderKling:          "KLING",
	ProviderReplicateTryOn: "REPLICATE",
	ProviderReplicateDecor: "REPLICATE",
}

// modelVersionEnv maps providers to their model version override
var modelVersionEnv = map[ProviderID]string{
	ProviderReplicateTryOn: "REPLICATE_TRYON_MODEL_VERSION",
	ProviderReplicateDecor: "REPLICATE_DECOR_MODEL_VERSION",
}

// activeEnv maps each category to its provider selection variable
var activeEnv = map[Category]string{
	CategoryClothingTryOn:      "CLOTHING_TRYON_PROVIDER",
	CategoryDecorVisualization: "DECOR_VISUALIZATION_PROVIDER",
	CategoryAISizing:           "AI_SIZING_PROVIDER",
}

// LookupFunc resolves an environment variable
type LookupFunc func(key string) (string, bool)

// Config is the provider registry. It is populated once and not mutated afterwards;
// switching providers at runtime happens on the Manager.
type Config struct {
	Providers map[ProviderID]adapters.ProviderConfig `yaml:"providers"`
	Active    map[Category]ProviderID                `yaml:"active"`

	// Warnings records selections and values that were ignored while loading
	Warnings []string `yaml:"-"`
}

// DefaultConfig returns the static defaults: vendor endpoints without credentials
// and every category pointed at its mock
func DefaultConfig() *Config {
	vendor := func(baseURL string) adapters.ProviderConfig {
		return adapters.ProviderConfig{
			BaseURL:       baseURL,
			Timeout:       defaultVendorTimeout,
			RetryAttempts: defaultRetryAttempts,
			EnableLogging: true,
		}
	}
	mockCfg := adapters.ProviderConfig{Timeout: defaultMockTimeout, EnableLogging: true}

	tryon := vendor(replicate.DefaultBaseURL)
	tryon.Extra = map[string]string{replicate.ModelVersionKey: replicate.DefaultTryOnModelVersion}
	decor := vendor(replicate.DefaultBaseURL)
	decor.Extra = map[string]string{replicate.ModelVersionKey: replicate.DefaultDecorModelVersion}

	return &Config{
		Providers: map[ProviderID]adapters.ProviderConfig{
			ProviderKling:          vendor(kling.DefaultBaseURL),
			ProviderReplicateTryOn: tryon,
			ProviderReplicateDecor: decor,
			ProviderMockClothing:   mockCfg,
			ProviderMockDecor:      mockCfg,
			ProviderMockSizing:     mockCfg,
		},
		Active: map[Category]ProviderID{
			CategoryClothingTryOn:      ProviderMockClothing,
			CategoryDecorVisualization: ProviderMockDecor,
			CategoryAISizing:           ProviderMockSizing,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by path
// (or STYLEAI_CONFIG when path is empty) and the process environment
func LoadConfig(path string) (*Config, error) {
	return LoadConfigFrom(path, os.LookupEnv)
}

// LoadConfigFrom is LoadConfig with an explicit environment
func LoadConfigFrom(path string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	cfg := DefaultConfig()
	if path == "" {
		path, _ = lookup(ConfigPathEnv)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(lookup)
	cfg.normalizeActive()
	return cfg, nil
}

// Provider returns the configuration of a provider
func (c *Config) Provider(id ProviderID) (adapters.ProviderConfig, bool) {
	pc, ok := c.Providers[id]
	return pc, ok
}

// ValidateProvider runs the field checks for a provider. Mocks are exempt.
func (c *Config) ValidateProvider(id ProviderID) error {
	if !id.Valid() {
		return errors.Wrapf(ErrUnsupportedProvider, "%q", id)
	}
	if id.IsMock() {
		return nil
	}
	pc, ok := c.Providers[id]
	if !ok {
		return errors.Wrapf(ErrMissingProviderConfig, "%s", id)
	}
	return pc.Validate(string(id))
}

func (c *Config) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	for _, w := range c.Warnings {
		if w == msg {
			return
		}
	}
	c.Warnings = append(c.Warnings, msg)
}

// fileConfig mirrors Config on disk; unknown categories and providers are reported, not fatal
type fileConfig struct {
	Providers map[string]fileProvider `yaml:"providers"`
	Active    map[string]string       `yaml:"active"`
}

// fileProvider accepts timeout and pollInterval as duration strings ("30s")
// and timeoutMs and pollIntervalMs as integer milliseconds, which win when set.
type fileProvider struct {
	adapters.ProviderConfig `yaml:",inline"`
	TimeoutMS               int `yaml:"timeoutMs"`
	PollIntervalMS          int `yaml:"pollIntervalMs"`
}

func (fp fileProvider) resolve() adapters.ProviderConfig {
	pc := fp.ProviderConfig
	if fp.TimeoutMS > 0 {
		pc.Timeout = time.Duration(fp.TimeoutMS) * time.Millisecond
	}
	if fp.PollIntervalMS > 0 {
		pc.PollInterval = time.Duration(fp.PollIntervalMS) * time.Millisecond
	}
	return pc
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}

	for name, fp := range fc.Providers {
		id, err := ParseProviderID(name)
		if err != nil {
			c.warnf("config file: ignoring provider %q: %v", name, err)
			continue
		}
		c.Providers[id] = mergeProvider(c.Providers[id], fp.resolve())
	}

	for name, provider := range fc.Active {
		category, err := ParseCategory(name)
		if err != nil {
			c.warnf("config file: ignoring active entry %q: %v", name, err)
			continue
		}
		c.Active[category] = ProviderID(strings.TrimSpace(provider))
	}
	return nil
}

// mergeProvider overlays the non-zero fields of src onto dst
func mergeProvider(dst, src adapters.ProviderConfig) adapters.ProviderConfig {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.RetryAttempts != 0 {
		dst.RetryAttempts = src.RetryAttempts
	}
	if src.EnableLogging {
		dst.EnableLogging = true
	}
	if src.PollInterval != 0 {
		dst.PollInterval = src.PollInterval
	}
	if src.MaxPollAttempts != 0 {
		dst.MaxPollAttempts = src.MaxPollAttempts
	}
	dst.CustomHeaders = mergeMap(dst.CustomHeaders, src.CustomHeaders)
	dst.Extra = mergeMap(dst.Extra, src.Extra)
	return dst
}

func mergeMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]string, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (c *Config) applyEnv(lookup LookupFunc) {
	for id, prefix := range envPrefixes {
		pc := c.Providers[id]
		if v, ok := lookup(prefix + "_API_URL"); ok && v != "" {
			pc.BaseURL = v
		}
		if v, ok := lookup(prefix + "_API_KEY"); ok {
			pc.APIKey = v
		}
		if ms, ok := c.envInt(lookup, prefix+"_TIMEOUT_MS"); ok {
			pc.Timeout = time.Duration(ms) * time.Millisecond
		}
		if n, ok := c.envInt(lookup, prefix+"_RETRY_ATTEMPTS"); ok {
			pc.RetryAttempts = n
		}
		if ms, ok := c.envInt(lookup, prefix+"_POLL_INTERVAL_MS"); ok {
			pc.PollInterval = time.Duration(ms) * time.Millisecond
		}
		if n, ok := c.envInt(lookup, prefix+"_MAX_POLL_ATTEMPTS"); ok {
			pc.MaxPollAttempts = n
		}
		if b, ok := c.envBool(lookup, prefix+"_ENABLE_LOGGING"); ok {
			pc.EnableLogging = b
		}
		c.Providers[id] = pc
	}

	for id, key := range modelVersionEnv {
		if v, ok := lookup(key); ok && v != "" {
			pc := c.Providers[id]
			pc.Extra = mergeMap(pc.Extra, map[string]string{replicate.ModelVersionKey: v})
			c.Providers[id] = pc
		}
	}

	if ms, ok := c.envInt(lookup, "MOCK_DELAY_MS"); ok {
		delay := (time.Duration(ms) * time.Millisecond).String()
		for _, category := range Categories {
			id := MockFor(category)
			pc := c.Providers[id]
			pc.Extra = mergeMap(pc.Extra, map[string]string{mock.DelayKey: delay})
			c.Providers[id] = pc
		}
	}

	for category, key := range activeEnv {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			c.Active[category] = ProviderID(strings.TrimSpace(v))
		}
	}
}

// normalizeActive replaces unknown or wrong-category selections with the category's mock
func (c *Config) normalizeActive() {
	for _, category := range Categories {
		raw, ok := c.Active[category]
		if !ok || raw == "" {
			c.Active[category] = MockFor(category)
			continue
		}
		id, err := ParseProviderID(string(raw))
		if err != nil {
			c.warnf("%s: %v, using %s", category, err, MockFor(category))
			c.Active[category] = MockFor(category)
			continue
		}
		if id.Category() != category {
			c.warnf("%s: %v, using %s", category, categoryMismatch(category, id), MockFor(category))
			c.Active[category] = MockFor(category)
			continue
		}
		c.Active[category] = id
	}
}

func (c *Config) envInt(lookup LookupFunc, key string) (int, bool) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		c.warnf("%s: invalid value %q, keeping default", key, v)
		return 0, false
	}
	return n, true
}

func (c *Config) envBool(lookup LookupFunc, key string) (bool, bool) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		c.warnf("%s: invalid value %q, keeping default", key, v)
		return false, false
	}
	return b, true
}
