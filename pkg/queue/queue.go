package queue

import (
	"context"
	"errors"
	"io"
	"sync"
)

var (
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("queue closed")
	// ErrWaiterBusy is returned by Next when another consumer is already waiting.
	ErrWaiterBusy = errors.New("queue already has a waiting consumer")
)

// Bridge is an unbounded single-consumer FIFO with close semantics.
type Bridge[T any] struct {
	mu      sync.Mutex
	pending []T
	waiter  chan struct{}
	closed  bool
	err     error

	stats   *Statistics
	metrics *queueMetrics
}

// New creates an empty bridge.
func New[T any](options ...Option[T]) *Bridge[T] {
	opts := applyOptions(options...)

	b := &Bridge[T]{stats: NewStatistics()}
	if opts.metricsReg != nil {
		if m, err := newQueueMetrics(opts.metricsReg, opts.metricsPrefix); err == nil {
			b.metrics = m
		}
	}
	return b
}

// Enqueue appends item and wakes the waiting consumer, if any.
func (b *Bridge[T]) Enqueue(item T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.pending = append(b.pending, item)
	b.stats.Enqueue(len(b.pending))
	if b.metrics != nil {
		b.metrics.recordEnqueue(len(b.pending))
	}
	b.wakeLocked()
	return nil
}

// Next returns the oldest pending item. When none is pending it waits for
// Enqueue, Close or ctx. After Close the remaining items are drained first,
// then the close error (io.EOF for a nil error) is returned on every call.
func (b *Bridge[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		b.mu.Lock()
		if len(b.pending) > 0 {
			item := b.pending[0]
			b.pending[0] = zero
			b.pending = b.pending[1:]
			b.stats.Dequeue(len(b.pending))
			if b.metrics != nil {
				b.metrics.recordDequeue(len(b.pending))
			}
			b.mu.Unlock()
			return item, nil
		}
		if b.closed {
			err := b.err
			b.mu.Unlock()
			return zero, err
		}
		if b.waiter != nil {
			b.stats.RejectWait()
			b.mu.Unlock()
			return zero, ErrWaiterBusy
		}
		wake := make(chan struct{})
		b.waiter = wake
		b.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			b.mu.Lock()
			if b.waiter == wake {
				b.waiter = nil
			}
			b.mu.Unlock()
			return zero, ctx.Err()
		}
	}
}

// Close terminates the sequence. Calls after the first are ignored.
func (b *Bridge[T]) Close(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if err == nil {
		err = io.EOF
	}
	b.closed = true
	b.err = err
	b.wakeLocked()
}

// Len returns the number of pending items.
func (b *Bridge[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stats returns the bridge's statistics.
func (b *Bridge[T]) Stats() *Statistics {
	return b.stats
}

func (b *Bridge[T]) wakeLocked() {
	if b.waiter != nil {
		close(b.waiter)
		b.waiter = nil
	}
}
