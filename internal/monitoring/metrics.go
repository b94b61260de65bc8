package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the API and derivation.
//
// All metrics are registered on the Registerer given to NewMetrics; pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
type Metrics struct {
	// HTTPRequestCounter counts HTTP requests.
	// Labels: method, route, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP request latency in seconds.
	// Labels: method, route
	HTTPRequestDuration *prometheus.HistogramVec

	// DerivationDuration measures a full snapshot-to-rows derivation.
	// Labels: view (flat|pivoted|benchmarks|quality)
	DerivationDuration *prometheus.HistogramVec

	// StoreFetchCounter counts entity-set reads.
	// Labels: entity, status (success|error)
	StoreFetchCounter *prometheus.CounterVec

	// FallbackSelections is the number of triples in the last derivation
	// whose winner is at or below the glitch threshold.
	FallbackSelections prometheus.Gauge

	// UnresolvedReferences is the number of dangling or cyclic references
	// seen in the last derivation.
	UnresolvedReferences prometheus.Gauge
}

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status code",
			},
			[]string{"method", "route", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaderboard_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route"},
		),

		DerivationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaderboard_derivation_duration_seconds",
				Help:    "Duration of leaderboard derivations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"view"},
		),

		StoreFetchCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_store_fetches_total",
				Help: "Total number of entity-set reads by entity and status",
			},
			[]string{"entity", "status"},
		),

		FallbackSelections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leaderboard_fallback_selections",
			Help: "Triples in the last derivation whose selected job is at or below the glitch threshold",
		}),

		UnresolvedReferences: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leaderboard_unresolved_references",
			Help: "Dangling or cyclic references seen in the last derivation",
		}),
	}
}

// RecordHTTP records one completed HTTP request.
func (m *Metrics) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordFetch records the outcome of one entity-set read.
func (m *Metrics) RecordFetch(entity string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreFetchCounter.WithLabelValues(entity, status).Inc()
}

// ObserveDerivation records how long a derivation of the given view took.
func (m *Metrics) ObserveDerivation(view string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DerivationDuration.WithLabelValues(view).Observe(elapsed.Seconds())
}

// SetQuality publishes the gauges derived from a quality snapshot.
func (m *Metrics) SetQuality(fallbacks, unresolved int) {
	if m == nil {
		return
	}
	m.FallbackSelections.Set(float64(fallbacks))
	m.UnresolvedReferences.Set(float64(unresolved))
}
