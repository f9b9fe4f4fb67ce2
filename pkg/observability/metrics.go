// Package observability provides Prometheus metrics and OpenTelemetry
// tracing hooks for the log shipper. Both are optional: the shipper
// works with the no-op implementations when the caller wires nothing.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the metrics provider
type MetricsConfig struct {
	// Namespace is the Prometheus namespace (default: logship)
	Namespace string
	// Subsystem is the Prometheus subsystem (default: shipper)
	Subsystem string
	// LatencyBuckets are custom histogram buckets for delivery latency
	LatencyBuckets []float64
	// ConstLabels are added to all metrics
	ConstLabels prometheus.Labels
}

// Metrics records shipper events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// RecordEnqueued counts a line accepted by AddLine
	RecordEnqueued()
	// RecordDelivered counts a line written to the wire
	RecordDelivered(latency time.Duration)
	// RecordDropped counts a line lost to the overflow policy
	RecordDropped()
	// RecordReconnect counts a completed reconnect cycle
	RecordReconnect()
	// SetQueueDepth tracks the pending-line gauge
	SetQueueDepth(depth int)
}

// PrometheusMetrics implements Metrics on a dedicated registry
type PrometheusMetrics struct {
	registry *prometheus.Registry

	enqueued   prometheus.Counter
	delivered  prometheus.Counter
	dropped    prometheus.Counter
	reconnects prometheus.Counter
	queueDepth prometheus.Gauge
	latency    prometheus.Histogram

	server *http.Server
}

// NewPrometheusMetrics creates a metrics provider with its own registry
func NewPrometheusMetrics(config MetricsConfig) *PrometheusMetrics {
	if config.Namespace == "" {
		config.Namespace = "logship"
	}
	if config.Subsystem == "" {
		config.Subsystem = "shipper"
	}
	if len(config.LatencyBuckets) == 0 {
		config.LatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	}

	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lines_enqueued_total",
			Help:        "Lines accepted by AddLine",
			ConstLabels: config.ConstLabels,
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lines_delivered_total",
			Help:        "Lines written to the collector",
			ConstLabels: config.ConstLabels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lines_dropped_total",
			Help:        "Lines dropped by the overflow policy",
			ConstLabels: config.ConstLabels,
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconnects_total",
			Help:        "Completed reconnect cycles",
			ConstLabels: config.ConstLabels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queue_depth",
			Help:        "Pending lines in the ingest queue",
			ConstLabels: config.ConstLabels,
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "delivery_latency_seconds",
			Help:        "Dequeue-to-wire latency per line",
			Buckets:     config.LatencyBuckets,
			ConstLabels: config.ConstLabels,
		}),
	}

	m.registry.MustRegister(m.enqueued, m.delivered, m.dropped, m.reconnects, m.queueDepth, m.latency)
	return m
}

// RecordEnqueued counts a line accepted by AddLine
func (m *PrometheusMetrics) RecordEnqueued() {
	m.enqueued.Inc()
}

// RecordDelivered counts a line written to the wire
func (m *PrometheusMetrics) RecordDelivered(latency time.Duration) {
	m.delivered.Inc()
	m.latency.Observe(latency.Seconds())
}

// RecordDropped counts a line lost to the overflow policy
func (m *PrometheusMetrics) RecordDropped() {
	m.dropped.Inc()
}

// RecordReconnect counts a completed reconnect cycle
func (m *PrometheusMetrics) RecordReconnect() {
	m.reconnects.Inc()
}

// SetQueueDepth tracks the pending-line gauge
func (m *PrometheusMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

// Handler returns the scrape handler for this provider's registry
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer exposes /metrics on the given address
func (m *PrometheusMetrics) StartServer(addr string) error {
	if m.server != nil {
		return fmt.Errorf("metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	m.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics server if one was started
func (m *PrometheusMetrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	err := m.server.Shutdown(ctx)
	m.server = nil
	return err
}

// NopMetrics discards all recordings
type NopMetrics struct{}

// NewNopMetrics creates a metrics provider that does nothing
func NewNopMetrics() *NopMetrics { return &NopMetrics{} }

func (*NopMetrics) RecordEnqueued()                       {}
func (*NopMetrics) RecordDelivered(latency time.Duration) {}
func (*NopMetrics) RecordDropped()                        {}
func (*NopMetrics) RecordReconnect()                      {}
func (*NopMetrics) SetQueueDepth(depth int)               {}
