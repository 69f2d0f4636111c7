package stream

import (
	"context"
	"strings"
)

// Source is a raw transport yielding one payload per Next. io.EOF marks a
// finite end. Close releases the transport and is safe to call repeatedly.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport selects the adapter used for a Request.
type Transport string

// Supported transports.
const (
	TransportPoll   Transport = "poll"
	TransportSocket Transport = "ws"
	TransportEvents Transport = "sse"
)

// ParseTransport maps a binding's type attribute to a Transport. Anything
// that is not a socket or event stream is polled.
func ParseTransport(s string) Transport {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ws", "wss", "socket", "websocket":
		return TransportSocket
	case "sse", "events", "eventsource":
		return TransportEvents
	}
	return TransportPoll
}

// Credentials controls whether the cookie jar accompanies a request.
type Credentials string

// Credentials modes.
const (
	CredentialsOmit       Credentials = "omit"
	CredentialsInclude    Credentials = "include"
	CredentialsSameOrigin Credentials = "same-origin"
)

// ParseCredentials maps an auth attribute to a Credentials mode. Unknown
// values mean omit.
func ParseCredentials(s string) Credentials {
	switch Credentials(strings.ToLower(strings.TrimSpace(s))) {
	case CredentialsInclude:
		return CredentialsInclude
	case CredentialsSameOrigin:
		return CredentialsSameOrigin
	}
	return CredentialsOmit
}
