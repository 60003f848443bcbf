package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records calls made to the remote catalog API.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	breaker  *prometheus.GaugeVec
}

// NewCatalogMetrics registers the catalog client metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of catalog API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_request_failures_total",
		Help: "Failed catalog API requests.",
	}, []string{"endpoint", "reason"})
	breaker := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_breaker_open",
		Help: "1 while the catalog circuit breaker is open.",
	}, []string{"name"})
	reg.MustRegister(duration, failure, breaker)
	return &CatalogMetrics{
		duration: duration,
		failure:  failure,
		breaker:  breaker,
	}
}

// ObserveDuration records the duration of one request to endpoint.
func (c *CatalogMetrics) ObserveDuration(endpoint string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

// IncFailure counts a failed request to endpoint.
func (c *CatalogMetrics) IncFailure(endpoint, reason string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(reason)).Inc()
}

// SetBreakerOpen flips the breaker gauge.
func (c *CatalogMetrics) SetBreakerOpen(name string, open bool) {
	if c == nil || c.breaker == nil {
		return
	}
	value := 0.0
	if open {
		value = 1
	}
	c.breaker.WithLabelValues(normalizeLabel(name)).Set(value)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
