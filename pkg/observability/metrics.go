package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Snapshot metrics
	snapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentviz_snapshots_total",
			Help: "Total number of snapshot aggregations by result",
		},
		[]string{"result"},
	)

	snapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentviz_snapshot_duration_seconds",
			Help:    "Snapshot aggregation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	detailFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentviz_detail_failures_total",
			Help: "Total number of agent detail lookups that failed and were degraded",
		},
	)

	// Event metrics
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentviz_events_total",
			Help: "Total number of stream events received by kind",
		},
		[]string{"kind"},
	)

	// Emphasis metrics
	emphasisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentviz_emphasis_total",
			Help: "Total number of edge emphasis transitions",
		},
		[]string{"transition"},
	)

	// Graph metrics
	graphNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentviz_graph_nodes",
			Help: "Number of nodes in the rendered graph",
		},
	)

	graphEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentviz_graph_edges",
			Help: "Number of edges in the rendered graph",
		},
	)

	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentviz_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	initOnce sync.Once
)

// InitMetrics registers the metrics with the default Prometheus registry
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			snapshotsTotal,
			snapshotDuration,
			detailFailuresTotal,
			eventsTotal,
			emphasisTotal,
			graphNodes,
			graphEdges,
			httpRequestsTotal,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordSnapshot records the outcome of one aggregation
func RecordSnapshot(result string, duration time.Duration) {
	snapshotsTotal.WithLabelValues(result).Inc()
	snapshotDuration.Observe(duration.Seconds())
}

// RecordDetailFailure counts a degraded agent record
func RecordDetailFailure() {
	detailFailuresTotal.Inc()
}

// RecordEvent counts a received stream event
func RecordEvent(kind string) {
	eventsTotal.WithLabelValues(kind).Inc()
}

// RecordEmphasis counts an emphasis transition ("apply", "retrigger", "revert", ...)
func RecordEmphasis(transition string) {
	emphasisTotal.WithLabelValues(transition).Inc()
}

// SetGraphSize sets the node and edge gauges
func SetGraphSize(nodes, edges int) {
	graphNodes.Set(float64(nodes))
	graphEdges.Set(float64(edges))
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, status int) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
