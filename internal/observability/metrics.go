// Package observability exposes the pipeline's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	providerRequests *prometheus.CounterVec
	predictions      *prometheus.CounterVec
	disputedMatches  prometheus.Counter
}

// NewMetrics registers the pipeline metrics on the given registerer. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsight",
			Name:      "cycles_total",
			Help:      "Prediction cycles by terminal result.",
		}, []string{"result"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchsight",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of completed cycles.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		providerRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsight",
			Name:      "provider_fetches_total",
			Help:      "Provider fetch operations by provider and outcome.",
		}, []string{"provider", "result"}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsight",
			Name:      "predictions_total",
			Help:      "Predictions by state and confidence tier.",
		}, []string{"state", "tier"}),
		disputedMatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchsight",
			Name:      "disputed_matches_total",
			Help:      "Matches excluded from features due to score disputes.",
		}),
	}
}

func (m *Metrics) CycleFinished(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ProviderFetch(providerID, result string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(providerID, result).Inc()
}

func (m *Metrics) Prediction(state, tier string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(state, tier).Inc()
}

func (m *Metrics) Disputed(count int) {
	if m == nil {
		return
	}
	m.disputedMatches.Add(float64(count))
}
