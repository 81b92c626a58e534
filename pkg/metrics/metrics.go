// Package metrics provides Prometheus metrics for submissions, the live
// feed, dashboard polling and HTTP handlers.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"p9e.in/gaugewatch/pkg/readings"
)

// Metrics contains every collector exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	submissionsTotal *prometheus.CounterVec
	photoBytes       prometheus.Histogram

	feedDropped prometheus.Counter
	liveClients prometheus.Gauge

	pollDuration prometheus.Histogram
	pollErrors   prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaugewatch_submissions_total",
			Help: "Total number of reading submissions by outcome",
		},
		[]string{"outcome"}, // verified, unverified, invalid_input, storage_unavailable, partial
	)

	m.photoBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gaugewatch_photo_size_bytes",
			Help:    "Size of stored gauge photos",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10), // 16KiB to 8MiB
		},
	)

	m.feedDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gaugewatch_feed_dropped_total",
		Help: "Readings not delivered to a slow live subscriber",
	})

	m.liveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gaugewatch_live_clients",
		Help: "Connected live dashboard websocket clients",
	})

	m.pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gaugewatch_dashboard_poll_duration_seconds",
		Help:    "Time taken to refresh the dashboard snapshot",
		Buckets: prometheus.DefBuckets,
	})

	m.pollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gaugewatch_dashboard_poll_errors_total",
		Help: "Failed dashboard refreshes",
	})

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaugewatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gaugewatch_http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.submissionsTotal.Describe(ch)
	m.photoBytes.Describe(ch)
	m.feedDropped.Describe(ch)
	m.liveClients.Describe(ch)
	m.pollDuration.Describe(ch)
	m.pollErrors.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.submissionsTotal.Collect(ch)
	m.photoBytes.Collect(ch)
	m.feedDropped.Collect(ch)
	m.liveClients.Collect(ch)
	m.pollDuration.Collect(ch)
	m.pollErrors.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
}

// Registry returns the registry the metrics were registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSubmission implements readings.Observer.
func (m *Metrics) ObserveSubmission(outcome readings.Outcome, photoBytes int) {
	m.submissionsTotal.WithLabelValues(string(outcome)).Inc()
	if photoBytes > 0 {
		m.photoBytes.Observe(float64(photoBytes))
	}
}

// FeedDropped counts one reading lost by a slow subscriber.
func (m *Metrics) FeedDropped() {
	m.feedDropped.Inc()
}

// LiveClients sets the number of connected websocket clients.
func (m *Metrics) LiveClients(n int) {
	m.liveClients.Set(float64(n))
}

// RecordPoll records one dashboard refresh.
func (m *Metrics) RecordPoll(d time.Duration, err error) {
	m.pollDuration.Observe(d.Seconds())
	if err != nil {
		m.pollErrors.Inc()
	}
}

// RecordHTTPRequest records a served request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
