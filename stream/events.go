package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/pkg/queue"
)

// EventSource yields the data of every server-sent "message" event. Named
// events other than "message" are ignored.
type EventSource struct {
	url    string
	queue  *queue.Bridge[[]byte]
	logger *slog.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// NewEventSource subscribes to url in the background. With reconnect set
// the subscription is retried with exponential backoff, like a browser
// EventSource; otherwise the first failure ends the sequence.
func NewEventSource(url string, client *http.Client, reconnect bool, q *queue.Bridge[[]byte], logger *slog.Logger) *EventSource {
	if client == nil {
		client = http.DefaultClient
	}
	if q == nil {
		q = queue.New[[]byte]()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &EventSource{
		url:    url,
		queue:  q,
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c := sse.NewClient(url)
	c.Connection = client
	if reconnect {
		c.ReconnectStrategy = backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
		c.ReconnectNotify = func(err error, next time.Duration) {
			logger.Debug("event stream reconnecting", "url", url, "error", err, "in", next)
		}
	} else {
		c.ReconnectStrategy = &backoff.StopBackOff{}
	}

	go s.run(ctx, c)
	return s
}

func (s *EventSource) run(ctx context.Context, c *sse.Client) {
	defer close(s.done)

	err := c.SubscribeRawWithContext(ctx, func(ev *sse.Event) {
		if len(ev.Data) == 0 {
			return
		}
		if len(ev.Event) > 0 && string(ev.Event) != "message" {
			return
		}
		data := make([]byte, len(ev.Data))
		copy(data, ev.Data)
		_ = s.queue.Enqueue(data)
	})

	switch {
	case ctx.Err() != nil, err == nil:
		s.queue.Close(io.EOF)
	default:
		s.logger.Debug("event stream failed", "url", s.url, "error", err)
		s.queue.Close(&errors.ConnectionError{URL: s.url, Err: err})
	}
}

// Next returns the next message payload.
func (s *EventSource) Next(ctx context.Context) ([]byte, error) {
	return s.queue.Next(ctx)
}

// Close cancels the subscription.
func (s *EventSource) Close() error {
	s.closeOnce.Do(func() {
		s.queue.Close(io.EOF)
		s.cancel()
	})
	return nil
}
