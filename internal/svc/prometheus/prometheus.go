package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Instance interface {
	Register(r prometheus.Registerer)

	SetConnections(n int)
	SetOnlineUsers(n int)
	EmitTargeted(delivered bool)
	EmitBroadcast(recipients int)
	SendDropped()
	Published(channel string)
	PublishDropped(channel string, reason string)
	Relayed(channel string)
	RelayMalformed(channel string)
}

type Options struct {
	Labels prometheus.Labels
}

type mon struct {
	connections    prometheus.Gauge
	onlineUsers    prometheus.Gauge
	emitTargeted   *prometheus.CounterVec
	emitBroadcast  prometheus.Counter
	sendDropped    prometheus.Counter
	published      *prometheus.CounterVec
	publishDropped *prometheus.CounterVec
	relayed        *prometheus.CounterVec
	relayMalformed *prometheus.CounterVec
}

func New(opts Options) Instance {
	return &mon{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "socialsync_ws_connections",
			Help:        "The number of open websocket connections",
			ConstLabels: opts.Labels,
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "socialsync_online_users",
			Help:        "The number of identified users in the presence registry",
			ConstLabels: opts.Labels,
		}),
		emitTargeted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "socialsync_emit_targeted_total",
			Help:        "Targeted emissions, by whether the user was connected",
			ConstLabels: opts.Labels,
		}, []string{"delivered"}),
		emitBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "socialsync_emit_broadcast_recipients_total",
			Help:        "Frames queued by broadcasts",
			ConstLabels: opts.Labels,
		}),
		sendDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "socialsync_send_dropped_total",
			Help:        "Frames dropped because a connection's send buffer was full or closed",
			ConstLabels: opts.Labels,
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "socialsync_broker_published_total",
			Help:        "Events published to the broker",
			ConstLabels: opts.Labels,
		}, []string{"channel"}),
		publishDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "socialsync_broker_publish_dropped_total",
			Help:        "Events dropped instead of being published",
			ConstLabels: opts.Labels,
		}, []string{"channel", "reason"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "socialsync_broker_relayed_total",
			Help:        "Broker events re-broadcast to local connections",
			ConstLabels: opts.Labels,
		}, []string{"channel"}),
		relayMalformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "socialsync_broker_malformed_total",
			Help:        "Inbound broker messages discarded because they could not be decoded",
			ConstLabels: opts.Labels,
		}, []string{"channel"}),
	}
}

func (m *mon) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.connections,
		m.onlineUsers,
		m.emitTargeted,
		m.emitBroadcast,
		m.sendDropped,
		m.published,
		m.publishDropped,
		m.relayed,
		m.relayMalformed,
	)
}

func (m *mon) SetConnections(n int) {
	m.connections.Set(float64(n))
}

func (m *mon) SetOnlineUsers(n int) {
	m.onlineUsers.Set(float64(n))
}

func (m *mon) EmitTargeted(delivered bool) {
	if delivered {
		m.emitTargeted.WithLabelValues("true").Inc()
	} else {
		m.emitTargeted.WithLabelValues("false").Inc()
	}
}

func (m *mon) EmitBroadcast(recipients int) {
	m.emitBroadcast.Add(float64(recipients))
}

func (m *mon) SendDropped() {
	m.sendDropped.Inc()
}

func (m *mon) Published(channel string) {
	m.published.WithLabelValues(channel).Inc()
}

func (m *mon) PublishDropped(channel string, reason string) {
	m.publishDropped.WithLabelValues(channel, reason).Inc()
}

func (m *mon) Relayed(channel string) {
	m.relayed.WithLabelValues(channel).Inc()
}

func (m *mon) RelayMalformed(channel string) {
	m.relayMalformed.WithLabelValues(channel).Inc()
}
