package realtime

import (
	"errors"
	"sync"

	"github.com/socialsync/api/internal/svc/presence"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

// Conn is a live client connection able to accept named events.
// Send must not block: implementations queue the frame and return.
type Conn interface {
	Handle() presence.Handle
	Send(event string, payload any) error
}

// Hub is the set of connections currently attached to this process, identified or not
type Hub struct {
	mx    sync.RWMutex
	conns map[presence.Handle]Conn
}

func NewHub() *Hub {
	return &Hub{
		conns: map[presence.Handle]Conn{},
	}
}

func (h *Hub) Attach(c Conn) {
	h.mx.Lock()
	h.conns[c.Handle()] = c
	h.mx.Unlock()
}

func (h *Hub) Detach(handle presence.Handle) {
	h.mx.Lock()
	delete(h.conns, handle)
	h.mx.Unlock()
}

func (h *Hub) Get(handle presence.Handle) (Conn, bool) {
	h.mx.RLock()
	defer h.mx.RUnlock()

	c, ok := h.conns[handle]

	return c, ok
}

// Snapshot copies the connection set at the time of the call
func (h *Hub) Snapshot() []Conn {
	h.mx.RLock()
	defer h.mx.RUnlock()

	out := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}

	return out
}

func (h *Hub) Count() int {
	h.mx.RLock()
	defer h.mx.RUnlock()

	return len(h.conns)
}
