// Package metric provides Prometheus metrics for keyden.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics. A nil *Registry is valid:
// every method is a no-op, so callers never need to guard observation
// sites.
type Registry struct {
	reg *prometheus.Registry

	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	protocolErrors    prometheus.Counter
}

// NewRegistry creates a new metrics registry with all keyden metrics
// registered, plus the standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keyden",
			Name:      "connections_active",
			Help:      "Number of currently open client connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyden",
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyden",
			Name:      "commands_total",
			Help:      "Total number of commands processed, by command name.",
		}, []string{"command"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "keyden",
			Name:      "command_duration_seconds",
			Help:      "Command execution latency, by command name.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"command"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyden",
			Name:      "protocol_errors_total",
			Help:      "Total number of connections closed due to protocol errors.",
		}),
	}

	reg.MustRegister(
		r.connectionsActive,
		r.connectionsTotal,
		r.commandsTotal,
		r.commandDuration,
		r.protocolErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// RegisterKeyCount registers a gauge reporting the number of keys in
// the store, sampled at scrape time.
func (r *Registry) RegisterKeyCount(fn func() float64) {
	if r == nil {
		return
	}
	r.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "keyden",
		Name:      "keys",
		Help:      "Number of keys currently in the store.",
	}, fn))
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.connectionsTotal.Inc()
	r.connectionsActive.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
}

// ObserveCommand records one executed command and its latency.
func (r *Registry) ObserveCommand(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(name).Inc()
	r.commandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ProtocolError records a connection terminated by a framing error.
func (r *Registry) ProtocolError() {
	if r == nil {
		return
	}
	r.protocolErrors.Inc()
}

// Handler returns an HTTP handler serving the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
