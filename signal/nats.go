package signal

import (
	"context"
	"sync/atomic"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/natsclient"
)

// DefaultSubject is the NATS subject signals travel on.
const DefaultSubject = "liveweave.signals"

// NATSChannel shares signals over a NATS subject. The client is owned by
// the caller and stays open after Close.
type NATSChannel struct {
	client  *natsclient.Client
	subject string
	closed  atomic.Bool
}

// NewNATSChannel uses subject, or DefaultSubject when empty.
func NewNATSChannel(client *natsclient.Client, subject string) *NATSChannel {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSChannel{client: client, subject: subject}
}

// Subject returns the subject in use.
func (c *NATSChannel) Subject() string { return c.subject }

// Publish implements Channel.
func (c *NATSChannel) Publish(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return errors.ErrShuttingDown
	}
	if err := c.client.Publish(ctx, c.subject, data); err != nil {
		return errors.WrapTransient(err, "NATSChannel", "Publish", "publish signal")
	}
	return nil
}

// Listen implements Channel.
func (c *NATSChannel) Listen(ctx context.Context, handler func([]byte)) error {
	return c.client.Subscribe(ctx, c.subject, func(_ context.Context, data []byte) {
		if c.closed.Load() || ctx.Err() != nil {
			return
		}
		handler(data)
	})
}

// Close stops delivery. The subscription is released when the client closes.
func (c *NATSChannel) Close() error {
	c.closed.Store(true)
	return nil
}
