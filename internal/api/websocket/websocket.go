package websocket

import (
	"strconv"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/prometheus"
	"github.com/socialsync/api/internal/svc/realtime"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	Registry *presence.Registry
	Hub      *realtime.Hub
	Emitter  *realtime.Emitter
	Events   events.Publisher
	Metrics  prometheus.Instance

	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// Handler upgrades requests to websocket connections and runs their lifecycle
type Handler struct {
	registry *presence.Registry
	hub      *realtime.Hub
	emitter  *realtime.Emitter
	events   events.Publisher
	metrics  prometheus.Instance
	upgrader fastws.FastHTTPUpgrader

	sendBuffer     int
	pingInterval   time.Duration
	pongWait       time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64
}

func NewHandler(opt Options) *Handler {
	if opt.SendBuffer <= 0 {
		opt.SendBuffer = 64
	}

	if opt.PingInterval <= 0 {
		opt.PingInterval = 25 * time.Second
	}

	if opt.WriteTimeout <= 0 {
		opt.WriteTimeout = 10 * time.Second
	}

	if opt.MaxMessageSize <= 0 {
		opt.MaxMessageSize = 64 * 1024
	}

	if opt.Metrics == nil {
		opt.Metrics = prometheus.New(prometheus.Options{})
	}

	return &Handler{
		registry: opt.Registry,
		hub:      opt.Hub,
		emitter:  opt.Emitter,
		events:   opt.Events,
		metrics:  opt.Metrics,
		upgrader: fastws.FastHTTPUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				return true
			},
		},
		sendBuffer:     opt.SendBuffer,
		pingInterval:   opt.PingInterval,
		pongWait:       opt.PingInterval * 2,
		writeTimeout:   opt.WriteTimeout,
		maxMessageSize: opt.MaxMessageSize,
	}
}

// Handle is the fasthttp handler for the socket endpoint
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	err := h.upgrader.Upgrade(ctx, func(conn *fastws.Conn) {
		s := h.newSession(conn)
		s.run()
	})
	if err != nil {
		zap.S().Named("socket").Debugw("upgrade failed",
			"remote", ctx.RemoteAddr().String(),
			"error", err,
		)
	}
}

func (h *Handler) newSession(conn *fastws.Conn) *session {
	return &session{
		h:      h,
		conn:   conn,
		handle: presence.Handle(uuid.NewString()),
		send:   make(chan []byte, h.sendBuffer),
		done:   make(chan struct{}),
	}
}

func (h *Handler) updateGauges() {
	h.metrics.SetConnections(h.hub.Count())
	h.metrics.SetOnlineUsers(h.registry.Count())
}

func (h *Handler) broadcastStatus(userID string, status string) {
	h.emitter.EmitToAll(events.EventUserStatus, map[string]any{
		"userId":    userID,
		"status":    status,
		"timestamp": events.Timestamp(time.Now()),
	})
}

// parseUserID accepts the announced id as a JSON string or number
func parseUserID(data any) (string, bool) {
	switch v := data.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}

	return "", false
}
