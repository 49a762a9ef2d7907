package transport

import (
	"context"
	"errors"
	"sync"
)

// Hub is an in-memory broker used by tests and simulations. It mirrors
// the pub/sub semantics of the Redis transport: publishing to a channel
// nobody listens on is not an error, it just goes nowhere.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Mock
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Mock)}
}

// Attach creates a transport subscribed to ownChannel.
func (h *Hub) Attach(ownChannel string) *Mock {
	return &Mock{hub: h, channel: ownChannel, out: make(chan []byte, 256)}
}

func (h *Hub) deliver(channel string, payload []byte) {
	h.mu.RLock()
	m := h.subs[channel]
	h.mu.RUnlock()
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.out <- payload:
	default:
		// a full inbox models a lossy link; pub/sub is best-effort
	}
}

// Mock is one node's endpoint on a Hub.
type Mock struct {
	hub     *Hub
	channel string
	out     chan []byte

	mu     sync.Mutex
	closed bool
}

func (m *Mock) Connect(ctx context.Context) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	m.hub.subs[m.channel] = m
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.hub.mu.Lock()
	delete(m.hub.subs, m.channel)
	m.hub.mu.Unlock()
	close(m.out)
	return nil
}

func (m *Mock) Publish(ctx context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return errors.New("transport closed")
	}
	m.hub.deliver(channel, payload)
	return nil
}

func (m *Mock) Broadcast(ctx context.Context, channels []string, payload []byte) error {
	for _, ch := range channels {
		if err := m.Publish(ctx, ch, payload); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mock) Receive() <-chan []byte {
	return m.out
}

var _ Transport = (*Mock)(nil)
var _ Transport = (*Redis)(nil)
