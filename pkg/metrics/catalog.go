package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records feed sync outcomes.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	stale    prometheus.Counter
	products prometheus.Gauge
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_sync_duration_seconds",
		Help:    "Duration of catalog feed syncs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_failures_total",
		Help: "Failed catalog syncs by stage.",
	}, []string{"stage"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_stale_total",
		Help: "Sync results discarded because a newer sync already applied.",
	})
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products",
		Help: "Products in the active catalog snapshot.",
	})
	reg.MustRegister(duration, failure, stale, products)
	return &CatalogMetrics{
		duration: duration,
		failure:  failure,
		stale:    stale,
		products: products,
	}
}

// ObserveSync records a sync duration under the given outcome.
func (c *CatalogMetrics) ObserveSync(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncFailure counts a failed sync at stage (fetch, parse).
func (c *CatalogMetrics) IncFailure(stage string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (c *CatalogMetrics) IncStale() {
	if c == nil || c.stale == nil {
		return
	}
	c.stale.Inc()
}

func (c *CatalogMetrics) SetProducts(n int) {
	if c == nil || c.products == nil {
		return
	}
	c.products.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
