// Package metrics exposes Prometheus instrumentation for codegame peers.
//
// A nil *Collector is valid and records nothing, so components take one
// unconditionally and callers opt in by constructing it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "codegame").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for turn duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "codegame",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the Prometheus metrics for one process.
type Collector struct {
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	bytesSent        prometheus.Counter
	debugCommands    prometheus.Counter
	decodeErrors     *prometheus.CounterVec
	sessionsTotal    *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	turnDuration     *prometheus.HistogramVec
	crashedPlayers   prometheus.Counter
}

// New registers the codegame metrics and returns a Collector.
// Registering twice on the same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_sent_total",
			Help:        "Total number of protocol messages written",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_received_total",
			Help:        "Total number of protocol messages decoded",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_sent_total",
			Help:        "Total number of encoded bytes written",
			ConstLabels: config.ConstLabels,
		}),

		debugCommands: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "debug_commands_total",
			Help:        "Total number of debug commands sent or forwarded",
			ConstLabels: config.ConstLabels,
		}),

		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "receive_errors_total",
			Help:        "Total number of failed receives by class",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),

		sessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_total",
			Help:        "Total number of handshakes by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected players",
			ConstLabels: config.ConstLabels,
		}),

		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "turn_duration_seconds",
			Help:        "Time from receiving a view to sending the action",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"role"}),

		crashedPlayers: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "crashed_players_total",
			Help:        "Total number of players dropped from a match",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// MessageSent records one written message of the given kind.
func (c *Collector) MessageSent(kind string, bytes int) {
	if c == nil {
		return
	}
	c.messagesSent.WithLabelValues(kind).Inc()
	c.bytesSent.Add(float64(bytes))
}

// MessageReceived records one decoded message of the given kind.
func (c *Collector) MessageReceived(kind string) {
	if c == nil {
		return
	}
	c.messagesReceived.WithLabelValues(kind).Inc()
}

// DebugCommand records one debug command.
func (c *Collector) DebugCommand() {
	if c == nil {
		return
	}
	c.debugCommands.Inc()
}

// ReceiveError records a failed receive. class is a short error class such
// as "truncated", "invalid", "unknown_tag", "closed" or "io".
func (c *Collector) ReceiveError(class string) {
	if c == nil {
		return
	}
	c.decodeErrors.WithLabelValues(class).Inc()
}

// SessionOpened records a handshake with the given status and, when it was
// accepted, one more active session.
func (c *Collector) SessionOpened(status string, accepted bool) {
	if c == nil {
		return
	}
	c.sessionsTotal.WithLabelValues(status).Inc()
	if accepted {
		c.activeSessions.Inc()
	}
}

// SessionClosed records one fewer active session.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.activeSessions.Dec()
}

// ObserveTurn records how long one turn took. role is "client" or "host".
func (c *Collector) ObserveTurn(role string, d time.Duration) {
	if c == nil {
		return
	}
	c.turnDuration.WithLabelValues(role).Observe(d.Seconds())
}

// PlayerCrashed records a player dropped from a match.
func (c *Collector) PlayerCrashed() {
	if c == nil {
		return
	}
	c.crashedPlayers.Inc()
}
