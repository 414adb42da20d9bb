// Package metrics collects Prometheus metrics for repository operations, secondary
// resource cleanup, the admin HTTP API and the database connection pool.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siocms/backend/internal/infrastructure/persistence"
)

// Namespace prefixes every metric name
const Namespace = "siocms"

// Metric names, without the namespace
const (
	MetricOperationsTotal      = "repository_operations_total"
	MetricOperationDuration    = "repository_operation_duration_seconds"
	MetricCleanupsTotal        = "cleanup_total"
	MetricHTTPRequestsTotal    = "http_requests_total"
	MetricHTTPRequestDuration  = "http_request_duration_seconds"
	MetricDBOpenConnections    = "db_open_connections"
	MetricDBInUseConnections   = "db_in_use_connections"
	MetricDBIdleConnections    = "db_idle_connections"
	MetricDBWaitCount          = "db_wait_count_total"
	MetricDBMaxOpenConnections = "db_max_open_connections"
)

// Collector records repository and HTTP outcomes. It satisfies viewmodel.Recorder.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Collector struct {
	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	cleanups         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricOperationsTotal,
			Help:      "Repository operations by resource, operation and outcome.",
		}, []string{"resource", "operation", "outcome"}),
		operationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricOperationDuration,
			Help:      "Repository operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "operation"}),
		cleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricCleanupsTotal,
			Help:      "Secondary resource cleanups run after a committed remove, by outcome.",
		}, []string{"resource", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricHTTPRequestsTotal,
			Help:      "Admin API requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricHTTPRequestDuration,
			Help:      "Admin API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.operations,
		c.operationLatency,
		c.cleanups,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

// ObserveOperation records one repository operation
func (c *Collector) ObserveOperation(resource, operation string, succeeded bool, elapsed time.Duration) {
	c.operations.WithLabelValues(resource, operation, outcome(succeeded)).Inc()
	c.operationLatency.WithLabelValues(resource, operation).Observe(elapsed.Seconds())
}

// ObserveCleanup records one finished cleanup
func (c *Collector) ObserveCleanup(resource string, succeeded bool) {
	c.cleanups.WithLabelValues(resource, outcome(succeeded)).Inc()
}

// ObserveHTTPRequest records one admin API request. route is the matched route
// template, never the raw path.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func outcome(succeeded bool) string {
	if succeeded {
		return "success"
	}
	return "failure"
}

// StatsSource reports connection pool statistics. *persistence.Database satisfies it.
type StatsSource interface {
	Stats() (persistence.ConnectionStats, error)
}

// RegisterDBStats exposes pool statistics of src as gauges read at scrape time.
// A failing source reads as zero.
func RegisterDBStats(reg prometheus.Registerer, src StatsSource) {
	read := func() persistence.ConnectionStats {
		stats, err := src.Stats()
		if err != nil {
			return persistence.ConnectionStats{}
		}
		return stats
	}
	gauge := func(name, help string, value func(persistence.ConnectionStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return value(read()) })
	}

	reg.MustRegister(
		gauge(MetricDBMaxOpenConnections, "Maximum number of open database connections.",
			func(s persistence.ConnectionStats) float64 { return float64(s.MaxOpenConnections) }),
		gauge(MetricDBOpenConnections, "Established database connections, in use and idle.",
			func(s persistence.ConnectionStats) float64 { return float64(s.OpenConnections) }),
		gauge(MetricDBInUseConnections, "Database connections currently in use.",
			func(s persistence.ConnectionStats) float64 { return float64(s.InUse) }),
		gauge(MetricDBIdleConnections, "Idle database connections.",
			func(s persistence.ConnectionStats) float64 { return float64(s.Idle) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricDBWaitCount,
			Help:      "Total number of connections waited for.",
		}, func() float64 { return float64(read().WaitCount) }),
	)
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
