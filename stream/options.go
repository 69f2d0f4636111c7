package stream

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/juju/clock"

	"github.com/makalin/LiveWeave/metric"
)

// Option configures an Opener.
type Option func(*Opener)

// WithBase sets the location relative locators resolve against. It is also
// the origin for same-origin credentials.
func WithBase(base *url.URL) Option {
	return func(o *Opener) {
		o.base = base
	}
}

// WithCookieJar sets the jar consulted under the credentials policy.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *Opener) {
		o.jar = jar
	}
}

// WithHTTPClient sets the client used for polling and event streams. Its
// Jar is replaced per request according to the credentials policy.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opener) {
		if client != nil {
			o.client = client
		}
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(o *Opener) {
		if dialer != nil {
			o.dialer = dialer
		}
	}
}

// WithClock sets the clock driving poll delays.
func WithClock(clk clock.Clock) Option {
	return func(o *Opener) {
		if clk != nil {
			o.clock = clk
		}
	}
}

// WithEventReconnect makes event streams reconnect with backoff instead of
// failing on the first error.
func WithEventReconnect(enabled bool) Option {
	return func(o *Opener) {
		o.reconnect = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics exports stream metrics to registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *Opener) {
		o.registry = registry
	}
}
