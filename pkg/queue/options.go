package queue

import (
	"github.com/makalin/LiveWeave/metric"
)

// Option configures a Bridge.
type Option[T any] func(*queueOptions[T])

// Statistics are always collected; Prometheus export is optional.
type queueOptions[T any] struct {
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithMetrics exports the bridge statistics as Prometheus metrics labelled
// with prefix. Ignored when registry is nil or prefix is empty.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *queueOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

func applyOptions[T any](options ...Option[T]) *queueOptions[T] {
	opts := &queueOptions[T]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
