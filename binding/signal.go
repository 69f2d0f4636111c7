package binding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/signal"
	"github.com/makalin/LiveWeave/stream"
)

// SignalKey wraps signal values handed to an Element.
const SignalKey = "$signal"

// SignalBinding renders a signal's value as {"$signal": value} whenever it
// changes.
type SignalBinding struct {
	id      string
	name    string
	bus     *signal.Bus
	el      Element
	logger  *slog.Logger
	metrics *Metrics

	active atomic.Bool

	mu          sync.Mutex
	unsubscribe func()
}

// NewSignalBinding binds el to the signal called name.
func NewSignalBinding(el Element, id, name string, bus *signal.Bus, options ...Option) (*SignalBinding, error) {
	if name == "" {
		return nil, errors.WrapInvalid(signal.ErrNoName, "SignalBinding", "New", "bind signal")
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := newSettings(options)
	return &SignalBinding{
		id:      id,
		name:    name,
		bus:     bus,
		el:      el,
		logger:  s.logger.With("component", "binding", "binding", id, "signal", name),
		metrics: s.metrics,
	}, nil
}

// ID returns the binding id.
func (b *SignalBinding) ID() string { return b.id }

// Name returns the bound signal name.
func (b *SignalBinding) Name() string { return b.name }

// Attach renders the current value, or {} when the signal is unset, and
// then every change until Detach.
func (b *SignalBinding) Attach(_ context.Context) error {
	if !b.active.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "SignalBinding", "Attach", fmt.Sprintf("attach %s", b.id))
	}
	b.metrics.transition(b.id, StateStreaming)

	unsubscribe := b.bus.Subscribe(b.name, func(_ string, value any) {
		b.render(value)
	})
	b.mu.Lock()
	b.unsubscribe = unsubscribe
	b.mu.Unlock()

	value, ok := b.bus.Get(b.name)
	if !ok {
		value = map[string]any{}
	}
	b.render(value)
	return nil
}

func (b *SignalBinding) render(value any) {
	if !b.active.Load() {
		return
	}
	b.el.Render(map[string]any{SignalKey: value})
	b.metrics.render("signal")
}

// Detach stops rendering and unsubscribes.
func (b *SignalBinding) Detach() {
	if !b.active.CompareAndSwap(true, false) {
		return
	}
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	b.metrics.transition(b.id, StateDetached)
	b.logger.Debug("signal binding detached")
}

// Wait returns immediately; signal bindings have no goroutine of their own.
func (b *SignalBinding) Wait() {}

// State is StateStreaming while attached.
func (b *SignalBinding) State() State {
	if b.active.Load() {
		return StateStreaming
	}
	return StateDetached
}

// Err is always nil.
func (b *SignalBinding) Err() error { return nil }

// New builds a SignalBinding when opts.Signal is set and a StreamBinding
// otherwise.
func New(el Element, opts Options, opener *stream.Opener, bus *signal.Bus, options ...Option) (Binding, error) {
	if opts.Signal != "" {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		if bus == nil {
			return nil, errors.WrapInvalid(errors.ErrMissingConfig, "binding", "New", fmt.Sprintf("binding %q needs a signal bus", opts.ID))
		}
		return NewSignalBinding(el, opts.ID, opts.Signal, bus, options...)
	}
	if opener == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "binding", "New", fmt.Sprintf("binding %q needs a stream opener", opts.ID))
	}
	return NewStreamBinding(el, opts, opener, options...)
}
