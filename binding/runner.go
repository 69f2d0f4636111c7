package binding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/makalin/LiveWeave/errors"
)

// Status is a point-in-time view of one binding.
type Status struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

// Runner owns a set of bindings for the life of a process.
type Runner struct {
	logger *slog.Logger

	mu       sync.RWMutex
	bindings []Binding
	byID     map[string]Binding
}

// NewRunner creates an empty runner.
func NewRunner(options ...Option) *Runner {
	s := newSettings(options)
	return &Runner{
		logger: s.logger.With("component", "runner"),
		byID:   make(map[string]Binding),
	}
}

// Add registers b. IDs must be unique.
func (r *Runner) Add(b Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[b.ID()]; ok {
		return errors.WrapInvalid(fmt.Errorf("%w: duplicate binding id %q", errors.ErrInvalidConfig, b.ID()),
			"Runner", "Add", "register binding")
	}
	r.bindings = append(r.bindings, b)
	r.byID[b.ID()] = b
	return nil
}

// Get returns the binding with id.
func (r *Runner) Get(id string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	return b, ok
}

func (r *Runner) snapshot() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Binding(nil), r.bindings...)
}

// Start attaches every binding concurrently. A binding that fails to
// attach is left in its error state and does not affect the others; the
// returned count is the number that attached.
func (r *Runner) Start(ctx context.Context) (int, error) {
	bindings := r.snapshot()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		attached int
	)
	for _, b := range bindings {
		g.Go(func() error {
			if err := b.Attach(ctx); err != nil {
				r.logger.Warn("binding attach failed", "binding", b.ID(), "error", err, "kind", errors.Kind(err))
				return nil
			}
			mu.Lock()
			attached++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return attached, err
	}
	r.logger.Info("bindings attached", "attached", attached, "total", len(bindings))
	return attached, nil
}

// Wait blocks until every binding's consumer has exited.
func (r *Runner) Wait() {
	for _, b := range r.snapshot() {
		b.Wait()
	}
}

// Stop detaches every binding and waits for them to unwind, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	bindings := r.snapshot()

	var g errgroup.Group
	for _, b := range bindings {
		g.Go(func() error {
			b.Detach()
			b.Wait()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "Runner", "Stop", "wait for bindings")
	}
}

// Status reports every binding in registration order.
func (r *Runner) Status() []Status {
	bindings := r.snapshot()
	out := make([]Status, 0, len(bindings))
	for _, b := range bindings {
		st := Status{ID: b.ID(), State: b.State()}
		if err := b.Err(); err != nil {
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	return out
}

// Healthy reports whether no binding is in StateError.
func (r *Runner) Healthy() bool {
	for _, b := range r.snapshot() {
		if b.State() == StateError {
			return false
		}
	}
	return true
}
