package activity

import (
	"sync"
	"sync/atomic"

	"github.com/socialsync/api/data/events"
)

const subscriberBufSize = 256

// Stream fans activity events out to every monitoring client watching the live feed.
// Slow clients have events dropped instead of slowing down producers.
type Stream struct {
	mx          sync.RWMutex
	subscribers map[int64]chan events.ChannelEvent
	nextID      atomic.Int64
}

func NewStream() *Stream {
	return &Stream{
		subscribers: map[int64]chan events.ChannelEvent{},
	}
}

// Subscribe registers a client and returns its id and the channel it receives events on
func (s *Stream) Subscribe() (int64, <-chan events.ChannelEvent) {
	id := s.nextID.Add(1)
	ch := make(chan events.ChannelEvent, subscriberBufSize)

	s.mx.Lock()
	s.subscribers[id] = ch
	s.mx.Unlock()

	return id, ch
}

func (s *Stream) Unsubscribe(id int64) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Stream) Push(ev events.ChannelEvent) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Stream) ClientCount() int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return len(s.subscribers)
}
