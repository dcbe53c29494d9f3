package broker

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockNetwork is an in-memory broker. Every MockInstance created from the same network
// sees the messages published by the others, which lets tests run several API instances in one process.
type MockNetwork struct {
	mx     sync.RWMutex
	nextID uint64
	subs   map[uint64]*mockSub
}

type mockSub struct {
	owner    *MockInstance
	channels map[string]struct{}

	mx     sync.Mutex
	out    chan Message
	closed bool
}

// push never blocks, a subscriber that stopped reading loses messages like it would on a real broker
func (s *mockSub) push(msg Message) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.closed {
		return
	}

	select {
	case s.out <- msg:
	default:
	}
}

func (s *mockSub) close() {
	s.mx.Lock()
	defer s.mx.Unlock()

	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

func NewMockNetwork() *MockNetwork {
	return &MockNetwork{
		subs: map[uint64]*mockSub{},
	}
}

// Instance creates a new connected client of the network
func (n *MockNetwork) Instance() *MockInstance {
	i := &MockInstance{net: n}
	i.connected.Store(true)

	return i
}

// Inject delivers raw bytes on a channel as if some external publisher had sent them
func (n *MockNetwork) Inject(channel string, data []byte) {
	n.deliver(channel, data)
}

func (n *MockNetwork) deliver(channel string, data []byte) {
	n.mx.RLock()
	targets := make([]*mockSub, 0, len(n.subs))

	for _, s := range n.subs {
		if _, ok := s.channels[channel]; ok && s.owner.Connected() {
			targets = append(targets, s)
		}
	}
	n.mx.RUnlock()

	for _, s := range targets {
		body := make([]byte, len(data))
		copy(body, data)

		s.push(Message{Channel: channel, Data: body})
	}
}

func (n *MockNetwork) remove(id uint64) {
	n.mx.Lock()
	s, ok := n.subs[id]
	delete(n.subs, id)
	n.mx.Unlock()

	if ok {
		s.close()
	}
}

type MockInstance struct {
	net       *MockNetwork
	connected atomic.Bool
	published atomic.Int64
}

func (i *MockInstance) Connected() bool {
	return i.connected.Load()
}

// SetConnected simulates the link to the broker going down or coming back.
// Going down ends every subscription held by this instance.
func (i *MockInstance) SetConnected(connected bool) {
	i.connected.Store(connected)

	if connected {
		return
	}

	i.net.mx.RLock()
	ids := []uint64{}

	for id, s := range i.net.subs {
		if s.owner == i {
			ids = append(ids, id)
		}
	}
	i.net.mx.RUnlock()

	for _, id := range ids {
		i.net.remove(id)
	}
}

// Published returns how many messages this instance handed to the network
func (i *MockInstance) Published() int64 {
	return i.published.Load()
}

func (i *MockInstance) Publish(ctx context.Context, channel string, data []byte) error {
	if !i.Connected() {
		return ErrNotConnected
	}

	i.published.Add(1)
	i.net.deliver(channel, data)

	return nil
}

func (i *MockInstance) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	if !i.Connected() {
		return nil, ErrNotConnected
	}

	s := &mockSub{
		owner:    i,
		channels: map[string]struct{}{},
		out:      make(chan Message, 256),
	}

	for _, ch := range channels {
		s.channels[ch] = struct{}{}
	}

	i.net.mx.Lock()
	i.net.nextID++
	id := i.net.nextID
	i.net.subs[id] = s
	i.net.mx.Unlock()

	go func() {
		<-ctx.Done()
		i.net.remove(id)
	}()

	return s.out, nil
}

func (i *MockInstance) Close() error {
	i.SetConnected(false)

	return nil
}
