package signal

import (
	"context"
	"sync"

	"github.com/makalin/LiveWeave/pkg/queue"
)

// Channel carries encoded messages between buses.
type Channel interface {
	// Publish sends data to every other listener.
	Publish(ctx context.Context, data []byte) error
	// Listen registers handler for inbound data until ctx ends or Close.
	// It returns once the handler is registered.
	Listen(ctx context.Context, handler func([]byte)) error
	// Close stops delivery to this channel's handler.
	Close() error
}

// MemoryHub connects buses inside one process. Each member receives the
// messages published by the others, asynchronously and in publish order.
type MemoryHub struct {
	mu      sync.Mutex
	members map[*hubMember]struct{}
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{members: make(map[*hubMember]struct{})}
}

// Join returns a new member channel.
func (h *MemoryHub) Join() Channel {
	m := &hubMember{hub: h, inbox: queue.New[[]byte]()}
	h.mu.Lock()
	h.members[m] = struct{}{}
	h.mu.Unlock()
	return m
}

func (h *MemoryHub) broadcast(from *hubMember, data []byte) {
	h.mu.Lock()
	targets := make([]*hubMember, 0, len(h.members))
	for m := range h.members {
		if m != from {
			targets = append(targets, m)
		}
	}
	h.mu.Unlock()

	for _, m := range targets {
		msg := make([]byte, len(data))
		copy(msg, data)
		// a closed member has left; nothing to deliver
		_ = m.inbox.Enqueue(msg)
	}
}

func (h *MemoryHub) leave(m *hubMember) {
	h.mu.Lock()
	delete(h.members, m)
	h.mu.Unlock()
}

type hubMember struct {
	hub   *MemoryHub
	inbox *queue.Bridge[[]byte]
	once  sync.Once
}

func (m *hubMember) Publish(_ context.Context, data []byte) error {
	m.hub.broadcast(m, data)
	return nil
}

func (m *hubMember) Listen(ctx context.Context, handler func([]byte)) error {
	go func() {
		for {
			data, err := m.inbox.Next(ctx)
			if err != nil {
				return
			}
			handler(data)
		}
	}()
	return nil
}

func (m *hubMember) Close() error {
	m.once.Do(func() {
		m.hub.leave(m)
		m.inbox.Close(nil)
	})
	return nil
}
