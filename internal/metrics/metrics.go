// Package metrics holds the Prometheus collectors of the recommendation
// service. Every method is safe on a nil *Metrics, which records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrichment outcomes.
const (
	OutcomeCacheHit    = "cache_hit"
	OutcomeFetched     = "fetched"
	OutcomePlaceholder = "placeholder"
)

// Metrics groups the service collectors.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	recommendations *prometheus.CounterVec
	coldStarts      prometheus.Counter
	enrichment      *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	eventsPublished *prometheus.CounterVec

	buildDuration *prometheus.GaugeVec
	catalogItems  prometheus.Gauge

	healthStatus    *prometheus.GaugeVec
	lastHealthCheck *prometheus.GaugeVec
}

// New registers the collectors with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "endpoint"}),

		recommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinematch_recommendations_total",
			Help: "Recommendation requests by result",
		}, []string{"result"}),

		coldStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "cinematch_cold_start_predictions_total",
			Help: "Preference predictions that fell back to the global mean",
		}),

		enrichment: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinematch_enrichment_total",
			Help: "Movie card enrichment outcomes",
		}, []string{"outcome"}),

		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cinematch_circuit_breaker_state",
			Help: "Circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		}, []string{"name"}),

		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinematch_events_published_total",
			Help: "Recommendation events handed to the message broker",
		}, []string{"status"}),

		buildDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cinematch_model_build_seconds",
			Help: "Duration of each model build stage in seconds",
		}, []string{"stage"}),

		catalogItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cinematch_catalog_items",
			Help: "Items in the served catalog",
		}),

		healthStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),

		lastHealthCheck: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_timestamp",
			Help: "Timestamp of last health check",
		}, []string{"service"}),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Recommendation counts a recommendation request by result: "ok",
// "not_found" or "error".
func (m *Metrics) Recommendation(result string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(result).Inc()
}

// ColdStarts adds n cold-start predictions.
func (m *Metrics) ColdStarts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.coldStarts.Add(float64(n))
}

// Enrichment counts one enrichment outcome.
func (m *Metrics) Enrichment(outcome string) {
	if m == nil {
		return
	}
	m.enrichment.WithLabelValues(outcome).Inc()
}

// BreakerState records the state of a named circuit breaker.
func (m *Metrics) BreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

// EventPublished counts one event publish attempt by status.
func (m *Metrics) EventPublished(status string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(status).Inc()
}

// ModelBuilt records the stage durations and catalog size of a model build.
func (m *Metrics) ModelBuilt(catalogItems int, stages map[string]time.Duration) {
	if m == nil {
		return
	}
	m.catalogItems.Set(float64(catalogItems))
	for stage, d := range stages {
		m.buildDuration.WithLabelValues(stage).Set(d.Seconds())
	}
}

// HealthChecked records the outcome of a dependency health check.
func (m *Metrics) HealthChecked(service string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1
	}
	m.healthStatus.WithLabelValues(service).Set(value)
	m.lastHealthCheck.WithLabelValues(service).Set(float64(time.Now().Unix()))
}
