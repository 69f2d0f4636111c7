package binding

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/pkg/interval"
	"github.com/makalin/LiveWeave/pkg/selector"
	"github.com/makalin/LiveWeave/stream"
	"github.com/makalin/LiveWeave/validate"
)

// Binding is the lifecycle shared by stream and signal bindings.
type Binding interface {
	ID() string
	Attach(ctx context.Context) error
	Detach()
	Wait()
	State() State
	Err() error
}

// StreamBinding renders the records of one stream into an Element.
type StreamBinding struct {
	id      string
	opts    Options
	el      Element
	opener  *stream.Opener
	schema  *validate.Schema
	logger  *slog.Logger
	metrics *Metrics

	active atomic.Bool

	mu     sync.Mutex
	state  State
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStreamBinding validates opts and prepares a detached binding.
func NewStreamBinding(el Element, opts Options, opener *stream.Opener, options ...Option) (*StreamBinding, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	schema, err := validate.Compile(opts.Schema)
	if err != nil {
		return nil, err
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	s := newSettings(options)

	return &StreamBinding{
		id:      opts.ID,
		opts:    opts,
		el:      el,
		opener:  opener,
		schema:  schema,
		logger:  s.logger.With("component", "binding", "binding", opts.ID),
		metrics: s.metrics,
	}, nil
}

// ID returns the binding id.
func (b *StreamBinding) ID() string { return b.id }

// State returns the current lifecycle state.
func (b *StreamBinding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the error that put the binding in StateError.
func (b *StreamBinding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *StreamBinding) setState(s State, err error) {
	b.mu.Lock()
	changed := b.state != s
	b.state = s
	b.err = err
	b.mu.Unlock()
	if changed {
		b.metrics.transition(b.opts.ID, s)
		b.logger.Debug("binding state", "state", s)
	}
}

// Attach opens the stream and starts rendering it. Without a source the
// element is cleared and the binding stays detached. An open failure is
// returned after the binding has entered StateError, unless Detach or ctx
// ended the open, in which case the binding is detached and the element is
// left alone.
func (b *StreamBinding) Attach(ctx context.Context) error {
	if !b.active.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "StreamBinding", "Attach", fmt.Sprintf("attach %s", b.id))
	}
	// a previous consumer may still be unwinding after Detach
	b.Wait()

	done := make(chan struct{})
	bctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.done = done
	b.cancel = cancel
	b.mu.Unlock()

	b.setState(StateMounting, nil)

	if b.opts.Source == "" {
		b.el.Clear()
		b.active.Store(false)
		cancel()
		close(done)
		b.setState(StateDetached, nil)
		return nil
	}
	if b.opts.Loading != "" {
		b.el.SetText(b.opts.Loading)
	}

	s, err := b.opener.Open(bctx, b.opts.Request())
	if err != nil {
		detached := !b.active.Load() || bctx.Err() != nil
		if detached {
			b.setState(StateDetached, nil)
		} else {
			b.fail(err)
		}
		b.active.Store(false)
		cancel()
		close(done)
		return err
	}

	b.setState(StateStreaming, nil)
	go b.consume(bctx, s, done)
	return nil
}

// Detach cancels the binding. Rendering stops as soon as the consuming
// goroutine observes it; Wait blocks until then. A binding in StateError
// keeps that state.
func (b *StreamBinding) Detach() {
	b.active.Store(false)
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the consuming goroutine has exited.
func (b *StreamBinding) Wait() {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (b *StreamBinding) consume(ctx context.Context, s *stream.Stream, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := s.Close(); err != nil {
			b.logger.Debug("stream close", "error", err)
		}
	}()

	var limiter *rate.Limiter
	if gap := interval.Parse(b.opts.Throttle); gap > 0 {
		limiter = rate.NewLimiter(rate.Every(gap), 1)
	}

	for {
		record, err := s.Next(ctx)
		if !b.active.Load() || ctx.Err() != nil {
			b.active.Store(false)
			b.setState(StateDetached, nil)
			return
		}
		if err != nil {
			b.active.Store(false)
			if stderrors.Is(err, io.EOF) {
				b.setState(StateDetached, nil)
				return
			}
			b.fail(err)
			return
		}

		if b.handle(record, limiter) && b.opts.Once {
			b.active.Store(false)
			b.setState(StateDetached, nil)
			return
		}
	}
}

// handle applies schema, select path, predicate and throttle to record and
// renders it. It reports whether a render happened.
func (b *StreamBinding) handle(record stream.Record, limiter *rate.Limiter) bool {
	if err := b.schema.Check(record); err != nil {
		b.metrics.skip("schema")
		b.logger.Debug("record skipped", "reason", "schema", "error", err)
		return false
	}

	value := record
	if b.opts.Select != "" {
		value, _ = selector.Select(record, b.opts.Select)
	}

	if len(b.opts.When) > 0 {
		matched, err := selector.Evaluate(record, b.opts.When)
		if err != nil {
			b.metrics.failure(b.opts.ID, errors.Kind(err))
			b.logger.Debug("predicate failed", "error", err)
		}
		if !matched {
			b.metrics.skip("predicate")
			if b.active.Load() {
				b.el.Clear()
			}
			return false
		}
	}

	if limiter != nil && !limiter.Allow() {
		b.metrics.skip("throttle")
		return false
	}

	if !b.active.Load() {
		return false
	}
	b.el.Render(value)
	b.metrics.render("stream")
	return true
}

func (b *StreamBinding) fail(err error) {
	b.setState(StateError, err)
	b.metrics.failure(b.opts.ID, errors.Kind(err))
	b.logger.Warn("binding failed", "error", err, "kind", errors.Kind(err))
	b.el.SetText(b.opts.FallbackText(err))
}
