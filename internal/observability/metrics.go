// Package observability exposes the Prometheus metrics the allocator,
// builder, and HTTP surface emit.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the process-wide metrics registry. A nil *Metrics is safe
// to call methods on; every method no-ops.
type Metrics struct {
	apiInflight   prometheus.Gauge
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	allocations   *prometheus.CounterVec
	evictions     *prometheus.CounterVec
	poolDepth     *prometheus.GaugeVec
	builderRuns   *prometheus.CounterVec
	builderShort  *prometheus.CounterVec
	builderSetLen *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "contentpool",
			Name:      "api_inflight_requests",
			Help:      "Number of HTTP requests currently being handled.",
		}),
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentpool",
			Name:      "api_requests_total",
			Help:      "Total HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contentpool",
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		allocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentpool",
			Name:      "allocations_total",
			Help:      "Total set allocations by category and outcome.",
		}, []string{"category", "outcome"}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentpool",
			Name:      "evictions_total",
			Help:      "Total set-ids evicted from ledgers by reason.",
		}, []string{"category", "reason"}),
		poolDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "contentpool",
			Name:      "pool_depth",
			Help:      "Number of set-ids currently offerable per category.",
		}, []string{"category"}),
		builderRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentpool",
			Name:      "builder_runs_total",
			Help:      "Total builder batch runs by category and outcome.",
		}, []string{"category", "outcome"}),
		builderShort: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentpool",
			Name:      "builder_shortfalls_total",
			Help:      "Total builder runs that produced zero sets for lack of items.",
		}, []string{"category"}),
		builderSetLen: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contentpool",
			Name:      "builder_sets_emitted",
			Help:      "Sets emitted per builder batch by category.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"category"}),
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPI(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveAllocation(category, outcome string) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) ObserveEviction(category, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.WithLabelValues(category, reason).Add(float64(n))
}

func (m *Metrics) SetPoolDepth(category string, depth int) {
	if m == nil {
		return
	}
	m.poolDepth.WithLabelValues(category).Set(float64(depth))
}

func (m *Metrics) ObserveBuilderRun(category, outcome string, setsEmitted int) {
	if m == nil {
		return
	}
	m.builderRuns.WithLabelValues(category, outcome).Inc()
	m.builderSetLen.WithLabelValues(category).Observe(float64(setsEmitted))
	if setsEmitted == 0 {
		m.builderShort.WithLabelValues(category).Inc()
	}
}
