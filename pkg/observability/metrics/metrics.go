// Package metrics provides Prometheus metrics for the catalog service:
// HTTP request metrics plus counters for the query engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequestDuration tracks HTTP request duration in seconds.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestsTotal tracks total number of HTTP requests.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestsInFlight tracks requests currently being processed.
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// queryPagesServed counts pages successfully produced by the query
	// engine, per entity.
	queryPagesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_pages_served_total",
			Help: "Total number of result pages served by the query engine",
		},
		[]string{"entity"},
	)

	// queryRejections counts requests the query engine rejected, per
	// entity and error code.
	queryRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_rejections_total",
			Help: "Total number of query requests rejected by validation",
		},
		[]string{"entity", "code"},
	)
)

// Registry manages Prometheus metric registration and exposure.
type Registry struct {
	registry *prometheus.Registry
}

// NewRegistry creates a registry preloaded with the service's HTTP and
// query metrics plus Go runtime collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(httpRequestDuration)
	reg.MustRegister(httpRequestsTotal)
	reg.MustRegister(httpRequestsInFlight)
	reg.MustRegister(queryPagesServed)
	reg.MustRegister(queryRejections)

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{registry: reg}
}

// MustRegister adds custom collectors, panicking on conflict.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying prometheus.Gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, path, s).Observe(duration.Seconds())
	httpRequestsTotal.WithLabelValues(method, path, s).Inc()
}

// IncrementInFlight increments the in-flight requests gauge.
func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight requests gauge.
func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

// RecordPageServed counts one successfully served page for an entity.
func RecordPageServed(entity string) {
	queryPagesServed.WithLabelValues(entity).Inc()
}

// RecordQueryRejection counts one rejected query request.
func RecordQueryRejection(entity, code string) {
	queryRejections.WithLabelValues(entity, code).Inc()
}
