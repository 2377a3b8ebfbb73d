package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redis_client"

// Registry holds the client metrics and the Prometheus registry they are
// registered with.
type Registry struct {
	registry *prometheus.Registry

	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	ConnectFailures  prometheus.Counter
	Reconnects       prometheus.Counter
	PipelineCommands prometheus.Histogram
	PubSubMessages   *prometheus.CounterVec
}

// NewRegistry creates a registry with all client metrics registered, plus
// the Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed, by command and outcome",
		}, []string{"command", "status"}),

		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Round-trip time of immediate commands",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"command"}),

		ConnectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Failed connection attempts",
		}),

		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnects after the server closed the connection",
		}),

		PipelineCommands: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_commands",
			Help:      "Commands flushed per pipeline or transaction",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),

		PubSubMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "messages_total",
			Help:      "Pub/Sub messages delivered to handlers, by kind",
		}, []string{"kind"}),
	}

	r.registry.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.ConnectFailures,
		r.Reconnects,
		r.PipelineCommands,
		r.PubSubMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.registry.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveCommand records one command outcome. A zero duration records
// only the counter, which is what batched commands report.
func (r *Registry) ObserveCommand(command string, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.CommandsTotal.WithLabelValues(command, status).Inc()
	if d > 0 {
		r.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
	}
}

// IncConnectFailure counts one failed connection attempt.
func (r *Registry) IncConnectFailure() {
	if r == nil {
		return
	}
	r.ConnectFailures.Inc()
}

// IncReconnect counts one transparent reconnect.
func (r *Registry) IncReconnect() {
	if r == nil {
		return
	}
	r.Reconnects.Inc()
}

// ObservePipeline records the size of a flushed batch.
func (r *Registry) ObservePipeline(n int) {
	if r == nil {
		return
	}
	r.PipelineCommands.Observe(float64(n))
}

// IncMessage counts one delivered Pub/Sub message ("message" or "pmessage").
func (r *Registry) IncMessage(kind string) {
	if r == nil {
		return
	}
	r.PubSubMessages.WithLabelValues(kind).Inc()
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return Global().Handler()
}
