package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/clock"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/metric"
	"github.com/makalin/LiveWeave/pkg/queue"
)

// Record is one decoded JSON value: map[string]any, []any, string,
// float64, bool or nil.
type Record = any

// Request describes a stream to open.
type Request struct {
	Source       string
	Transport    Transport
	PollInterval time.Duration
	Credentials  Credentials
}

// Opener opens streams against a shared base location, cookie jar and
// transport configuration.
type Opener struct {
	base      *url.URL
	jar       http.CookieJar
	client    *http.Client
	dialer    *websocket.Dialer
	clock     clock.Clock
	reconnect bool
	logger    *slog.Logger
	registry  *metric.MetricsRegistry
	metrics   *streamMetrics
}

// NewOpener creates an Opener.
func NewOpener(opts ...Option) *Opener {
	o := &Opener{
		client: http.DefaultClient,
		dialer: websocket.DefaultDialer,
		clock:  clock.WallClock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.logger = o.logger.With("component", "stream")

	if o.registry != nil {
		m, err := newStreamMetrics(o.registry)
		if err != nil {
			o.logger.Warn("stream metrics disabled", "error", err)
		} else {
			o.metrics = m
		}
	}
	return o
}

// Open resolves req.Source and starts the transport. Socket streams are
// open once Open returns; poll and event streams connect lazily.
func (o *Opener) Open(ctx context.Context, req Request) (*Stream, error) {
	transport := req.Transport
	if transport == "" {
		transport = TransportPoll
	}

	target, err := resolve(o.base, req.Source)
	if err != nil {
		o.metrics.failure(transport, errors.Kind(err))
		return nil, err
	}
	attach := attachCookies(req.Credentials, o.jar, o.base, target)

	var src Source
	switch transport {
	case TransportSocket:
		var header http.Header
		if attach {
			header = cookieHeader(o.jar, target)
		}
		src, err = NewSocketSource(ctx, target, o.dialer, header, queue.New[[]byte](), o.logger)
	case TransportEvents:
		src = NewEventSource(target.String(), clientFor(o.client, o.jar, attach), o.reconnect, queue.New[[]byte](), o.logger)
	default:
		transport = TransportPoll
		src = NewPollSource(target.String(), clientFor(o.client, o.jar, attach), req.PollInterval, o.clock)
	}
	if err != nil {
		o.metrics.failure(transport, errors.Kind(err))
		return nil, err
	}

	o.metrics.opened(transport)
	o.logger.Debug("stream opened", "url", target.String(), "transport", transport)

	return &Stream{
		src:       src,
		transport: transport,
		url:       target.String(),
		metrics:   o.metrics,
	}, nil
}

// Stream is an open, decoded record sequence.
type Stream struct {
	src       Source
	transport Transport
	url       string
	metrics   *streamMetrics

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

// Transport returns the transport serving the stream.
func (s *Stream) Transport() Transport { return s.transport }

// URL returns the resolved locator.
func (s *Stream) URL() string { return s.url }

// Next returns the next record. A payload that is not JSON ends the stream
// with *errors.ParseError. Once an error other than a context error has
// been returned, every later call returns it again.
func (s *Stream) Next(ctx context.Context) (Record, error) {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	payload, err := s.src.Next(ctx)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, s.fail(err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, s.fail(&errors.ParseError{Payload: payload, Err: err})
	}
	s.metrics.record(s.transport)
	return rec, nil
}

func (s *Stream) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
		if err != io.EOF {
			s.metrics.failure(s.transport, errors.Kind(err))
		}
	}
	return s.err
}

// Close releases the transport. Later calls are no-ops.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
		s.metrics.closed(s.transport)
		s.mu.Lock()
		if s.err == nil {
			s.err = io.EOF
		}
		s.mu.Unlock()
	})
	return s.closeErr
}
