package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/pkg/queue"
)

// SocketSource yields every websocket message, text or binary, in arrival
// order.
type SocketSource struct {
	url    string
	conn   *websocket.Conn
	queue  *queue.Bridge[[]byte]
	logger *slog.Logger

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// socketURL maps http(s) locators onto ws(s) and rejects everything else.
func socketURL(u *url.URL) (*url.URL, error) {
	out := *u
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
	case "http":
		out.Scheme = "ws"
	case "https":
		out.Scheme = "wss"
	default:
		return nil, &errors.ConnectionError{
			URL: u.String(),
			Err: fmt.Errorf("unsupported socket scheme %q", u.Scheme),
		}
	}
	return &out, nil
}

// NewSocketSource dials target and returns once the connection is open.
// A nil dialer uses websocket.DefaultDialer.
func NewSocketSource(
	ctx context.Context, target *url.URL, dialer *websocket.Dialer, header http.Header,
	q *queue.Bridge[[]byte], logger *slog.Logger,
) (*SocketSource, error) {
	u, err := socketURL(target)
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if q == nil {
		q = queue.New[[]byte]()
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, resp, err := dialSocket(ctx, dialer, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, &errors.ConnectionError{URL: u.String(), Err: err}
	}

	s := &SocketSource{
		url:    u.String(),
		conn:   conn,
		queue:  q,
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// dialSocket is dialer.DialContext with the opening handshake bound to ctx.
// gorilla only applies ctx to the TCP dial, so the raw connection is closed
// when ctx ends before the handshake completes.
func dialSocket(
	ctx context.Context, dialer *websocket.Dialer, target string, header http.Header,
) (*websocket.Conn, *http.Response, error) {
	d := *dialer
	netDial := d.NetDialContext
	if netDial == nil {
		if d.NetDial != nil {
			plain := d.NetDial
			netDial = func(_ context.Context, network, addr string) (net.Conn, error) {
				return plain(network, addr)
			}
		} else {
			var nd net.Dialer
			netDial = nd.DialContext
		}
	}

	var (
		mu        sync.Mutex
		raw       []net.Conn
		cancelled bool
	)
	d.NetDialContext = func(dctx context.Context, network, addr string) (net.Conn, error) {
		c, err := netDial(dctx, network, addr)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		defer mu.Unlock()
		if cancelled {
			c.Close()
			return nil, ctx.Err()
		}
		raw = append(raw, c)
		return c, nil
	}
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		cancelled = true
		for _, c := range raw {
			c.Close()
		}
	})

	conn, resp, err := d.DialContext(ctx, target, header)
	if !stop() {
		if err == nil {
			conn.Close()
		}
		return nil, resp, ctx.Err()
	}
	return conn, resp, err
}

func (s *SocketSource) readLoop() {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			switch {
			case s.closing.Load():
				s.queue.Close(io.EOF)
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				s.queue.Close(io.EOF)
			default:
				s.logger.Debug("socket read failed", "url", s.url, "error", err)
				s.queue.Close(&errors.ConnectionError{URL: s.url, Err: err})
			}
			return
		}
		if err := s.queue.Enqueue(data); err != nil {
			return
		}
	}
}

// Next returns the next message.
func (s *SocketSource) Next(ctx context.Context) ([]byte, error) {
	return s.queue.Next(ctx)
}

// Close sends a normal close frame and closes the connection.
func (s *SocketSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.queue.Close(io.EOF)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = s.conn.Close()
		<-s.done
	})
	return err
}
