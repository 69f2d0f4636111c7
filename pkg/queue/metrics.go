package queue

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/makalin/LiveWeave/metric"
)

type queueMetrics struct {
	enqueued prometheus.Counter
	dequeued prometheus.Counter
	depth    prometheus.Gauge
}

func newQueueMetrics(registry *metric.MetricsRegistry, prefix string) (*queueMetrics, error) {
	labels := prometheus.Labels{"component": prefix}
	m := &queueMetrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "queue",
			Name:        "enqueued_total",
			ConstLabels: labels,
			Help:        "Total number of items enqueued",
		}),
		dequeued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "queue",
			Name:        "dequeued_total",
			ConstLabels: labels,
			Help:        "Total number of items handed to the consumer",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "queue",
			Name:        "depth",
			ConstLabels: labels,
			Help:        "Current number of pending items",
		}),
	}

	if err := registry.RegisterCounter(prefix, "queue_enqueued", m.enqueued); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "queue_dequeued", m.dequeued); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "queue_depth", m.depth); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *queueMetrics) recordEnqueue(depth int) {
	m.enqueued.Inc()
	m.depth.Set(float64(depth))
}

func (m *queueMetrics) recordDequeue(depth int) {
	m.dequeued.Inc()
	m.depth.Set(float64(depth))
}
