// Prometheus collectors describing the command centre's control plane.

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups every metric the service exports. A nil *Collectors is valid and records nothing.
type Collectors struct {
	commands         *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	connections      *prometheus.GaugeVec
	chronicle        *prometheus.CounterVec
	ticks            prometheus.Counter
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "commands_total",
			Help:      "Commands handled by the command router, by command and outcome.",
		}, []string{"command", "outcome"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "hub",
			Name:      "delivery_failures_total",
			Help:      "Events which couldn't be handed to a connection, by channel.",
		}, []string{"channel"}),
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "studio",
			Subsystem: "hub",
			Name:      "connections",
			Help:      "Connections currently registered, by channel.",
		}, []string{"channel"}),
		chronicle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "chronicle_entries_total",
			Help:      "Chronicle entries appended, by entry type.",
		}, []string{"type"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "metrics_ticks_total",
			Help:      "Metric ticks ingested into the broadcast state.",
		}),
	}
	reg.MustRegister(c.commands, c.deliveryFailures, c.connections, c.chronicle, c.ticks)
	return c
}

func (c *Collectors) CommandHandled(command, outcome string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(command, outcome).Inc()
}

func (c *Collectors) DeliveryFailed(channel string) {
	if c == nil {
		return
	}
	c.deliveryFailures.WithLabelValues(channel).Inc()
}

func (c *Collectors) SetConnections(channel string, n int) {
	if c == nil {
		return
	}
	c.connections.WithLabelValues(channel).Set(float64(n))
}

func (c *Collectors) ChronicleAppended(entryType string) {
	if c == nil {
		return
	}
	c.chronicle.WithLabelValues(entryType).Inc()
}

func (c *Collectors) MetricsTicked() {
	if c == nil {
		return
	}
	c.ticks.Inc()
}
