package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "bizsim"

// Metrics holds the client collectors.
type Metrics struct {
	state          prometheus.Gauge
	transitions    *prometheus.CounterVec
	framesIn       *prometheus.CounterVec
	framesOut      *prometheus.CounterVec
	bytesIn        prometheus.Counter
	bytesOut       prometheus.Counter
	reconnects     prometheus.Counter
	authFailures   prometheus.Counter
	protocolErrors prometheus.Counter
	queueDepth     prometheus.Gauge
	dropped        prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		state: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connection_state",
			Help:      "Current connection state (0 disconnected, 1 resolving, 2 connecting, 3 connected, 4 invalid login)",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "state_transitions_total",
			Help:      "Connection state transitions by target state",
		}, []string{"state"}),
		framesIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_received_total",
			Help:      "Frames decoded from the server by command",
		}, []string{"command"}),
		framesOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_sent_total",
			Help:      "Frames written to the server by command",
		}, []string{"command"}),
		bytesIn: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes read from the server",
		}),
		bytesOut: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_sent_total",
			Help:      "Bytes written to the server",
		}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reconnects_total",
			Help:      "Connection attempts started by the reconnect deadline",
		}),
		authFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auth_failures_total",
			Help:      "Handshakes rejected as unauthorized",
		}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections dropped because of a corrupt frame stream",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "outbound_queue_depth",
			Help:      "Frames waiting in the outbound queue",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "outbound_dropped_total",
			Help:      "Queued frames discarded after a write failure or teardown",
		}),
	}
}

// Handler serves the metrics in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StateChanged records a transition to the state with the given code and name.
func (m *Metrics) StateChanged(code int, name string) {
	if m == nil {
		return
	}
	m.state.Set(float64(code))
	m.transitions.WithLabelValues(name).Inc()
}

// FrameReceived records one decoded frame of size bytes including header.
func (m *Metrics) FrameReceived(command string, size int) {
	if m == nil {
		return
	}
	m.framesIn.WithLabelValues(command).Inc()
	m.bytesIn.Add(float64(size))
}

// FrameSent records one written frame of size bytes including header.
func (m *Metrics) FrameSent(command string, size int) {
	if m == nil {
		return
	}
	m.framesOut.WithLabelValues(command).Inc()
	m.bytesOut.Add(float64(size))
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) AuthFailure() {
	if m == nil {
		return
	}
	m.authFailures.Inc()
}

func (m *Metrics) ProtocolError() {
	if m == nil {
		return
	}
	m.protocolErrors.Inc()
}

// SetQueueDepth records the outbound queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Dropped records n discarded outbound frames.
func (m *Metrics) Dropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}
