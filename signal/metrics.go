package signal

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/makalin/LiveWeave/metric"
)

type busMetrics struct {
	ops            *prometheus.CounterVec
	drops          *prometheus.CounterVec
	publishFailure prometheus.Counter
}

func newBusMetrics(registry *metric.MetricsRegistry) (*busMetrics, error) {
	m := &busMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "signal",
			Name:      "operations_total",
			Help:      "Signal operations applied, by op and source",
		}, []string{"op", "source"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "signal",
			Name:      "dropped_total",
			Help:      "Inbound channel messages dropped, by reason",
		}, []string{"reason"}),
		publishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "signal",
			Name:      "publish_failures_total",
			Help:      "Operations that could not be published to the channel",
		}),
	}

	if err := registry.RegisterCounterVec("signal", "operations", m.ops); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("signal", "dropped", m.drops); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("signal", "publish_failures", m.publishFailure); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *busMetrics) op(op Op, source string) {
	if m != nil {
		m.ops.WithLabelValues(string(op), source).Inc()
	}
}

func (m *busMetrics) dropped(reason string) {
	if m != nil {
		m.drops.WithLabelValues(reason).Inc()
	}
}

func (m *busMetrics) publishFailed() {
	if m != nil {
		m.publishFailure.Inc()
	}
}
