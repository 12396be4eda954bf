// Package telemetry exposes the prometheus metrics emitted by the AI service layer.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "styleai"

// Outcomes recorded for adapter requests
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
	switches  *prometheus.CounterVec
	health    *prometheus.GaugeVec
}

// NewMetrics registers the collectors on registerer. A nil registerer
// registers them on a fresh private registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_requests_total",
			Help:      "Vendor operations issued by adapters",
		}, []string{"provider", "operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_request_duration_seconds",
			Help:      "Latency of vendor operations",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider", "operation"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fallbacks_total",
			Help:      "Times a provider failed to construct and its fallback was used",
		}, []string{"category", "primary", "fallback"}),
		switches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_switches_total",
			Help:      "Runtime provider switches",
		}, []string{"category", "provider"}),
		health: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_available",
			Help:      "Result of the last availability probe (1 available, 0 not)",
		}, []string{"category", "provider"}),
	}
}

// ObserveRequest records one vendor operation
func (m *Metrics) ObserveRequest(provider, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.requests.WithLabelValues(provider, operation, outcome).Inc()
	m.duration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// IncFallback records a construction-time fallback
func (m *Metrics) IncFallback(category, primary, fallback string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(category, primary, fallback).Inc()
}

// IncSwitch records a provider switch
func (m *Metrics) IncSwitch(category, provider string) {
	if m == nil {
		return
	}
	m.switches.WithLabelValues(category, provider).Inc()
}

// SetAvailable records the result of a health probe
func (m *Metrics) SetAvailable(category, provider string, ok bool) {
	if m == nil {
		return
	}
	v := 0.0
	if ok {
		v = 1
	}
	m.health.WithLabelValues(category, provider).Set(v)
}
