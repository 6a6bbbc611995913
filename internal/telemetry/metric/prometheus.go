package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "respkv"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	ConnectionsActive   prometheus.Gauge
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected prometheus.Counter

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec

	KeysExpired prometheus.Counter
}

// NewRegistry creates a registry with the application metrics and the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_on_error_total",
			Help:      "Connections closed by the server after a limit violation.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of executed commands.",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency, excluding socket I/O.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"command"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Error replies sent to clients, by kind.",
		}, []string{"kind"}),
		KeysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_expired_total",
			Help:      "Keys removed because their expiry passed.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.ConnectionsRejected,
		r.CommandsTotal,
		r.CommandDuration,
		r.ErrorsTotal,
		r.KeysExpired,
	)

	return r
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// ConnRejected records a connection closed after a limit violation.
func (r *Registry) ConnRejected() {
	if r == nil {
		return
	}
	r.ConnectionsRejected.Inc()
}

// ObserveCommand records one executed command.
func (r *Registry) ObserveCommand(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(name).Inc()
	r.CommandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveError records one error reply.
func (r *Registry) ObserveError(kind string) {
	if r == nil {
		return
	}
	r.ErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveExpired records n keys removed on expiry.
func (r *Registry) ObserveExpired(n int) {
	if r == nil {
		return
	}
	r.KeysExpired.Add(float64(n))
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
