package binding

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/pkg/interval"
	"github.com/makalin/LiveWeave/pkg/selector"
	"github.com/makalin/LiveWeave/stream"
)

// Options declares one binding.
type Options struct {
	ID          string          `json:"id" yaml:"id" toml:"id"`
	Source      string          `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Transport   string          `json:"transport,omitempty" yaml:"transport,omitempty" toml:"transport,omitempty"`
	Poll        string          `json:"poll,omitempty" yaml:"poll,omitempty" toml:"poll,omitempty"`
	Credentials string          `json:"credentials,omitempty" yaml:"credentials,omitempty" toml:"credentials,omitempty"`
	Select      string          `json:"select,omitempty" yaml:"select,omitempty" toml:"select,omitempty"`
	Once        bool            `json:"once,omitempty" yaml:"once,omitempty" toml:"once,omitempty"`
	Loading     string          `json:"loading,omitempty" yaml:"loading,omitempty" toml:"loading,omitempty"`
	Fallback    string          `json:"fallback,omitempty" yaml:"fallback,omitempty" toml:"fallback,omitempty"`
	When        []selector.Rule `json:"when,omitempty" yaml:"when,omitempty" toml:"when,omitempty"`
	Throttle    string          `json:"throttle,omitempty" yaml:"throttle,omitempty" toml:"throttle,omitempty"`
	Schema      string          `json:"schema,omitempty" yaml:"schema,omitempty" toml:"schema,omitempty"`

	// Signal binds to a signal name instead of a stream.
	Signal string `json:"signal,omitempty" yaml:"signal,omitempty" toml:"signal,omitempty"`
}

// Validate checks fields that would otherwise fail at attach time.
func (o Options) Validate() error {
	if o.Signal != "" && o.Source != "" {
		return errors.WrapInvalid(fmt.Errorf("%w: binding %q sets both source and signal", errors.ErrInvalidConfig, o.ID),
			"Options", "Validate", "check binding kind")
	}
	if o.Transport != "" && !knownTransport(o.Transport) {
		return errors.WrapInvalid(fmt.Errorf("%w: binding %q: unknown transport %q", errors.ErrInvalidConfig, o.ID, o.Transport),
			"Options", "Validate", "check transport")
	}
	for _, field := range []struct{ name, value string }{{"poll", o.Poll}, {"throttle", o.Throttle}} {
		if field.value != "" && !interval.Valid(field.value) {
			return errors.WrapInvalid(fmt.Errorf("%w: binding %q: bad %s duration %q", errors.ErrInvalidConfig, o.ID, field.name, field.value),
				"Options", "Validate", "parse duration")
		}
	}
	for _, rule := range o.When {
		if err := rule.Validate(); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: binding %q: %w", errors.ErrInvalidConfig, o.ID, err),
				"Options", "Validate", "check when rule")
		}
	}
	return nil
}

// Request builds the stream request for these options.
func (o Options) Request() stream.Request {
	return stream.Request{
		Source:       o.Source,
		Transport:    stream.ParseTransport(o.Transport),
		PollInterval: interval.Parse(o.Poll),
		Credentials:  stream.ParseCredentials(o.Credentials),
	}
}

// FallbackText is the text shown after err.
func (o Options) FallbackText(err error) string {
	if o.Fallback != "" {
		return o.Fallback
	}
	return "⚠️ " + err.Error()
}

func knownTransport(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poll", "json", "ws", "wss", "socket", "websocket", "sse", "events", "eventsource":
		return true
	}
	return false
}

// Option configures a binding or runner.
type Option func(*settings)

type settings struct {
	logger  *slog.Logger
	metrics *Metrics
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records binding metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}
