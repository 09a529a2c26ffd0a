package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route, method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

func (h *HTTPMetrics) Observe(route, method string, status int, d time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Observe(d.Seconds())
}
