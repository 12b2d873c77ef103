package http

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's prometheus instruments.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	requestDur    *prometheus.HistogramVec
	queryResults  prometheus.Histogram
}

// NewMetrics creates the instruments on a private registry. lockCount feeds
// the lock-registry gauge; it is read at scrape time.
func NewMetrics(lockCount func() float64) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesd_http_requests_total",
			Help: "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notesd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and route.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notesd_query_results",
			Help:    "Result count per retrieval query after threshold filtering.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}

	reg.MustRegister(m.requestsTotal, m.requestDur, m.queryResults)

	if lockCount != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "notesd_store_lock_registry_size",
			Help: "Number of (tenant, collection) lock entries created since start.",
		}, lockCount))
	}

	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// middleware records per-request counters and latency.
func (m *Metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		route := c.Path()
		if route == "" {
			route = c.Request().URL.Path
		}
		m.requestsTotal.WithLabelValues(
			c.Request().Method,
			route,
			strconv.Itoa(c.Response().Status),
		).Inc()
		m.requestDur.WithLabelValues(c.Request().Method, route).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// observeQueryResults records the size of a served result set.
func (m *Metrics) observeQueryResults(n int) {
	m.queryResults.Observe(float64(n))
}
