package realtime

import (
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/prometheus"
	"go.uber.org/zap"
)

// Emitter delivers named events either to one user's current connection or to every local connection.
// Delivery is at most once per connection and nothing is retried or queued for offline users.
type Emitter struct {
	registry *presence.Registry
	hub      *Hub
	metrics  prometheus.Instance
}

func NewEmitter(registry *presence.Registry, hub *Hub, metrics prometheus.Instance) *Emitter {
	if metrics == nil {
		metrics = prometheus.New(prometheus.Options{})
	}

	return &Emitter{
		registry: registry,
		hub:      hub,
		metrics:  metrics,
	}
}

// EmitToUser sends the event to the connection registered for userID.
// A user that is not connected is silently skipped.
func (e *Emitter) EmitToUser(userID string, event string, payload any) {
	handle, ok := e.registry.Lookup(userID)
	if !ok {
		e.metrics.EmitTargeted(false)
		return
	}

	conn, ok := e.hub.Get(handle)
	if !ok {
		// registered but already detached, the close path will unregister it
		e.metrics.EmitTargeted(false)
		return
	}

	e.metrics.EmitTargeted(true)
	e.send(conn, event, payload)
}

// EmitToAll sends the event to every connection attached when the call is made
func (e *Emitter) EmitToAll(event string, payload any) {
	conns := e.hub.Snapshot()

	for _, c := range conns {
		e.send(c, event, payload)
	}

	e.metrics.EmitBroadcast(len(conns))
}

func (e *Emitter) send(c Conn, event string, payload any) {
	if err := c.Send(event, payload); err != nil {
		e.metrics.SendDropped()

		zap.S().Named("realtime").Debugw("frame dropped",
			"handle", c.Handle(),
			"event", event,
			"error", err,
		)
	}
}

func (e *Emitter) IsOnline(userID string) bool {
	return e.registry.IsOnline(userID)
}
