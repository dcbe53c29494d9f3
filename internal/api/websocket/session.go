package websocket

import (
	"sync"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/realtime"
	"go.uber.org/zap"
)

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type session struct {
	h      *Handler
	conn   *fastws.Conn
	handle presence.Handle

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// mx guards userID and closed so an announcement cannot land after teardown
	mx     sync.Mutex
	userID string
	closed bool
}

func (s *session) Handle() presence.Handle {
	return s.handle
}

// Send queues a frame for the write loop. It never blocks: a full buffer drops the frame.
func (s *session) Send(event string, payload any) error {
	b, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return realtime.ErrConnClosed
	default:
	}

	select {
	case s.send <- b:
		return nil
	case <-s.done:
		return realtime.ErrConnClosed
	default:
		return realtime.ErrSendBufferFull
	}
}

func (s *session) run() {
	s.h.hub.Attach(s)
	s.h.updateGauges()

	zap.S().Named("socket").Debugw("connected", "handle", s.handle)

	go s.writeLoop()
	s.readLoop()
	s.close()
}

// close tears the connection down exactly once.
// Every identity the connection still holds goes offline.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.mx.Lock()
		s.closed = true
		s.mx.Unlock()

		close(s.done)

		s.h.hub.Detach(s.handle)

		for _, userID := range s.h.registry.UnregisterAll(s.handle) {
			s.h.broadcastStatus(userID, "offline")

			zap.S().Named("socket").Debugw("user offline", "user_id", userID, "handle", s.handle)
		}

		if s.conn != nil {
			_ = s.conn.Close()
		}

		s.h.updateGauges()
	})
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(s.h.maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.h.pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.h.pongWait))
	})

	for {
		t, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		if t != fastws.TextMessage {
			continue
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			zap.S().Named("socket").Debugw("undecodable frame",
				"handle", s.handle,
				"size", len(data),
			)

			continue
		}

		s.dispatch(f)
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(s.h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.writeTimeout))

			if err := s.conn.WriteMessage(fastws.TextMessage, msg); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.writeTimeout))

			if err := s.conn.WriteMessage(fastws.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *session) dispatch(f frame) {
	if f.Event == events.EventUserOnline {
		s.identify(f.Data)
		return
	}

	ce, ok := clientEvents[f.Event]
	if !ok {
		return
	}

	data, ok := f.Data.(map[string]any)
	if !ok {
		zap.S().Named("socket").Debugw("client event without an object payload",
			"handle", s.handle,
			"event", f.Event,
		)

		return
	}

	payload := ce.payload(data)

	s.h.emitter.EmitToAll(ce.broadcast, payload)

	if s.h.events != nil {
		s.h.events.Publish(ce.channel, events.NewChannelEvent(ce.kind, payload))
	}
}

// identify binds the announced user to this connection. A different identity
// announced earlier on the same connection is released first.
func (s *session) identify(data any) {
	userID, ok := parseUserID(data)
	if !ok {
		return
	}

	s.mx.Lock()
	if s.closed {
		s.mx.Unlock()
		return
	}

	prev := s.userID
	released := prev != "" && prev != userID && s.h.registry.UnregisterUser(prev, s.handle)

	s.h.registry.Register(userID, s.handle)
	s.userID = userID
	s.mx.Unlock()

	s.h.updateGauges()

	if released {
		zap.S().Named("socket").Debugw("identity replaced",
			"previous_user_id", prev,
			"user_id", userID,
			"handle", s.handle,
		)

		s.h.broadcastStatus(prev, "offline")
	}

	zap.S().Named("socket").Debugw("user online", "user_id", userID, "handle", s.handle)

	s.h.broadcastStatus(userID, "online")
}
