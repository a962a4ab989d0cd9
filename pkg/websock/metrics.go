package websock

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/websock/pkg/wire"
)

// Metrics records connection activity in Prometheus collectors. A nil
// *Metrics disables recording; every record method tolerates it.
type Metrics struct {
	connectsTotal     *prometheus.CounterVec
	openConnections   prometheus.Gauge
	messagesTotal     *prometheus.CounterVec
	messageBytesTotal *prometheus.CounterVec
	closesTotal       *prometheus.CounterVec
	sendDropsTotal    prometheus.Counter
	handshakeSeconds  prometheus.Histogram
}

type metricsOptions struct {
	namespace   string
	subsystem   string
	constLabels prometheus.Labels
	registerer  prometheus.Registerer
	buckets     []float64
}

// MetricsOption customizes NewMetrics.
type MetricsOption func(*metricsOptions)

// WithNamespace sets the metric namespace. Default: "websock".
func WithNamespace(namespace string) MetricsOption {
	return func(o *metricsOptions) {
		o.namespace = namespace
	}
}

// WithSubsystem sets the metric subsystem. Default: none.
func WithSubsystem(subsystem string) MetricsOption {
	return func(o *metricsOptions) {
		o.subsystem = subsystem
	}
}

// WithConstLabels attaches constant labels to every metric.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(o *metricsOptions) {
		o.constLabels = labels
	}
}

// WithRegistry registers the metrics with a specific registerer instead of
// the default one.
func WithRegistry(reg prometheus.Registerer) MetricsOption {
	return func(o *metricsOptions) {
		o.registerer = reg
	}
}

// WithHandshakeBuckets sets the handshake duration histogram buckets.
func WithHandshakeBuckets(buckets []float64) MetricsOption {
	return func(o *metricsOptions) {
		o.buckets = buckets
	}
}

// NewMetrics creates and registers the connection metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	o := &metricsOptions{
		namespace:  "websock",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(o)
	}

	factory := promauto.With(o.registerer)
	return &Metrics{
		connectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "connects_total",
			Help:        "Connection attempts by result.",
			ConstLabels: o.constLabels,
		}, []string{"result"}),
		openConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "open_connections",
			Help:        "Connections currently open.",
			ConstLabels: o.constLabels,
		}),
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "messages_total",
			Help:        "Data messages by direction and type.",
			ConstLabels: o.constLabels,
		}, []string{"direction", "type"}),
		messageBytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "message_bytes_total",
			Help:        "Data message payload bytes by direction.",
			ConstLabels: o.constLabels,
		}, []string{"direction"}),
		closesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "closes_total",
			Help:        "Closed connections by close code.",
			ConstLabels: o.constLabels,
		}, []string{"code"}),
		sendDropsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "send_drops_total",
			Help:        "Sends rejected because the queue was full.",
			ConstLabels: o.constLabels,
		}),
		handshakeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   o.namespace,
			Subsystem:   o.subsystem,
			Name:        "handshake_duration_seconds",
			Help:        "Time from dial start to handshake completion.",
			ConstLabels: o.constLabels,
			Buckets:     o.buckets,
		}),
	}
}

func (m *Metrics) recordConnect(result string) {
	if m == nil {
		return
	}
	m.connectsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) recordOpen() {
	if m == nil {
		return
	}
	m.openConnections.Inc()
}

func (m *Metrics) recordClosed(code wire.StatusCode) {
	if m == nil {
		return
	}
	m.openConnections.Dec()
	m.closesTotal.WithLabelValues(strconv.Itoa(int(code))).Inc()
}

func (m *Metrics) recordMessage(direction string, typ MessageType, size int) {
	if m == nil {
		return
	}
	var label string
	switch typ {
	case MessageText:
		label = "text"
	case MessageBinary:
		label = "binary"
	default:
		label = "unknown"
	}
	m.messagesTotal.WithLabelValues(direction, label).Inc()
	m.messageBytesTotal.WithLabelValues(direction).Add(float64(size))
}

func (m *Metrics) recordSendDrop() {
	if m == nil {
		return
	}
	m.sendDropsTotal.Inc()
}

func (m *Metrics) recordHandshakeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.handshakeSeconds.Observe(d.Seconds())
}
