package signal

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/metric"
	"github.com/makalin/LiveWeave/pkg/queue"
	"github.com/makalin/LiveWeave/pkg/retry"
)

var (
	// ErrUnknownOp is returned for operations other than set, merge and clear.
	ErrUnknownOp = stderrors.New("unknown signal operation")
	// ErrNoName is returned when an operation has no signal name.
	ErrNoName = stderrors.New("signal name required")
)

// Handler receives the new value of a signal.
type Handler func(name string, value any)

type subscription struct {
	id      uint64
	handler Handler
}

type notification struct {
	name  string
	value any
}

// Bus is a keyed state store with ordered change notification.
type Bus struct {
	origin  string
	channel Channel
	logger  *slog.Logger
	metrics *busMetrics

	publishTimeout time.Duration
	publishRetry   retry.Config

	// outbox holds local operations until the publisher sends them.
	outbox    *queue.Bridge[Message]
	published chan struct{}

	mu          sync.Mutex
	values      map[string]any
	subs        map[string][]subscription
	nextID      uint64
	pending     []notification
	dispatching bool

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	closed  atomic.Bool
}

// NewBus creates a bus. Without a channel the bus is process-local.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		origin:         uuid.NewString(),
		logger:         slog.Default(),
		values:         make(map[string]any),
		subs:           make(map[string][]subscription),
		publishTimeout: 5 * time.Second,
		publishRetry:   retry.Publish(),
		ctx:            context.Background(),
	}
	var registry *metric.MetricsRegistry
	for _, opt := range opts {
		if opt != nil {
			opt(b, &registry)
		}
	}
	b.logger = b.logger.With("component", "signal", "origin", b.origin)
	if b.channel != nil {
		b.outbox = queue.New[Message]()
	}

	if registry != nil {
		m, err := newBusMetrics(registry)
		if err != nil {
			b.logger.Warn("signal metrics disabled", "error", err)
		} else {
			b.metrics = m
		}
	}
	return b
}

// Origin identifies this bus on the channel.
func (b *Bus) Origin() string { return b.origin }

// Start attaches the channel listener and starts the publisher. It is a
// no-op without a channel. Operations applied before Start are published
// once it runs.
func (b *Bus) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Bus", "Start", "start bus")
	}

	b.mu.Lock()
	b.ctx, b.cancel = context.WithCancel(ctx)
	listenCtx := b.ctx
	b.mu.Unlock()

	if b.channel == nil {
		return nil
	}
	if err := b.channel.Listen(listenCtx, b.receive); err != nil {
		b.cancel()
		b.started.Store(false)
		return errors.Wrap(err, "Bus", "Start", "attach channel listener")
	}

	published := make(chan struct{})
	b.mu.Lock()
	b.published = published
	b.mu.Unlock()
	go b.runPublisher(listenCtx, published)

	b.logger.Debug("signal bus listening")
	return nil
}

// Close flushes queued operations for at most the publish timeout and
// detaches from the channel. Local state stays readable.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.mu.Lock()
	cancel := b.cancel
	published := b.published
	b.mu.Unlock()

	if b.outbox != nil {
		b.outbox.Close(nil)
	}
	if published != nil {
		select {
		case <-published:
		case <-time.After(b.publishTimeout):
			b.logger.Warn("signal outbox not flushed before close", "pending", b.outbox.Len())
		}
	}
	if cancel != nil {
		cancel()
	}
	if published != nil {
		<-published
	}
	if b.channel != nil {
		return b.channel.Close()
	}
	return nil
}

// Get returns the current value of name. Treat returned objects as read-only.
func (b *Bus) Get(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[name]
	return v, ok
}

// Snapshot returns a copy of all signal values.
func (b *Bus) Snapshot() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Subscribe registers handler for changes to name. The returned function
// removes it and may be called more than once.
func (b *Bus) Subscribe(name string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[name]
			for i, s := range list {
				if s.id == id {
					b.subs[name] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(b.subs[name]) == 0 {
				delete(b.subs, name)
			}
		})
	}
}

// Apply mutates name, notifies local subscribers and queues the change for
// publishing. It never waits on the channel. Op is matched case-insensitively.
func (b *Bus) Apply(name string, op Op, value any) error {
	if name == "" {
		return ErrNoName
	}
	op, err := ParseOp(string(op))
	if err != nil {
		return err
	}
	b.mutate(name, op, value, "local")
	b.dispatch()
	b.enqueue(Message{Name: name, Op: op, Value: publishedValue(op, value), Origin: b.origin})
	return nil
}

// Set replaces the value of name.
func (b *Bus) Set(name string, value any) error { return b.Apply(name, OpSet, value) }

// Merge shallow-merges value into the object held by name.
func (b *Bus) Merge(name string, value any) error { return b.Apply(name, OpMerge, value) }

// Clear resets name to an empty object.
func (b *Bus) Clear(name string) error { return b.Apply(name, OpClear, nil) }

// publishedValue is the value carried on the wire: the merge operand for
// merges so receivers merge into their own state, the value otherwise.
func publishedValue(op Op, value any) any {
	if op == OpClear {
		return nil
	}
	return value
}

func (b *Bus) mutate(name string, op Op, value any, source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := applyOp(b.values[name], op, value)
	b.values[name] = next
	b.pending = append(b.pending, notification{name: name, value: next})
	b.metrics.op(op, source)
}

// dispatch drains pending notifications unless another call is already
// draining them, in which case that call delivers ours in order.
func (b *Bus) dispatch() {
	b.mu.Lock()
	if b.dispatching {
		b.mu.Unlock()
		return
	}
	b.dispatching = true

	for len(b.pending) > 0 {
		n := b.pending[0]
		b.pending[0] = notification{}
		b.pending = b.pending[1:]
		handlers := make([]Handler, 0, len(b.subs[n.name]))
		for _, s := range b.subs[n.name] {
			handlers = append(handlers, s.handler)
		}
		b.mu.Unlock()

		for _, h := range handlers {
			b.safeCall(h, n)
		}

		b.mu.Lock()
	}
	b.dispatching = false
	b.mu.Unlock()
}

func (b *Bus) safeCall(h Handler, n notification) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("signal handler panicked", "signal", n.name, "panic", r)
		}
	}()
	h(n.name, n.value)
}

func (b *Bus) enqueue(msg Message) {
	if b.outbox == nil || b.closed.Load() {
		return
	}
	if err := b.outbox.Enqueue(msg); err != nil {
		b.logger.Debug("signal not queued", "signal", msg.Name, "error", err)
	}
}

// runPublisher sends queued operations in order until the outbox is closed
// and drained.
func (b *Bus) runPublisher(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		msg, err := b.outbox.Next(context.Background())
		if err != nil {
			return
		}
		b.publish(ctx, msg)
	}
}

func (b *Bus) publish(parent context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.metrics.publishFailed()
		b.logger.Warn("signal not publishable", "signal", msg.Name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(parent, b.publishTimeout)
	defer cancel()

	err = retry.Do(ctx, b.publishRetry, func() error {
		return b.channel.Publish(ctx, data)
	})
	if err != nil {
		b.metrics.publishFailed()
		b.logger.Warn("signal publish failed", "signal", msg.Name, "error", err)
	}
}

// receive applies a message from the channel without publishing it again.
func (b *Bus) receive(data []byte) {
	msg, err := DecodeMessage(data)
	switch {
	case err != nil:
		b.drop("decode", msg, err)
		return
	case msg.Name == "":
		b.drop("no_name", msg, nil)
		return
	case msg.Origin != "" && msg.Origin == b.origin:
		b.drop("echo", msg, nil)
		return
	}
	op, err := ParseOp(string(msg.Op))
	if err != nil {
		b.drop("unknown_op", msg, err)
		return
	}

	b.mutate(msg.Name, op, msg.Value, "remote")
	b.dispatch()
}

func (b *Bus) drop(reason string, msg Message, err error) {
	b.metrics.dropped(reason)
	b.logger.Debug("inbound signal dropped", "reason", reason, "signal", msg.Name, "error", err)
}
