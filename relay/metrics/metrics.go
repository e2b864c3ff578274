// Package metrics holds the Prometheus collectors exported by the lingo relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lingo"

// Upstream error reasons.
const (
	ReasonUnreachable = "unreachable"
	ReasonStatus      = "status"
	ReasonRead        = "read"
)

// Metrics is the relay's set of collectors.
type Metrics struct {
	Requests       *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	StreamChunks   prometheus.Counter
	StreamBytes    prometheus.Counter
	UpstreamErrors *prometheus.CounterVec
	ActiveStreams  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Relay requests by route and response status code.",
		}, []string{"route", "code"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "request_duration_seconds",
			Help:      "Time until the relay handler returned, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		StreamChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "stream_chunks_total",
			Help:      "NDJSON records forwarded to clients.",
		}),
		StreamBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "stream_bytes_total",
			Help:      "Generation stream bytes forwarded to clients.",
		}),
		UpstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "upstream_errors_total",
			Help:      "Failed upstream calls by reason.",
		}, []string{"reason"}),
		ActiveStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "active_streams",
			Help:      "Generation streams currently being relayed.",
		}),
	}
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
