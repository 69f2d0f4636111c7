package stream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/makalin/LiveWeave/metric"
)

type streamMetrics struct {
	records *prometheus.CounterVec
	errors  *prometheus.CounterVec
	open    *prometheus.GaugeVec
}

func newStreamMetrics(registry *metric.MetricsRegistry) (*streamMetrics, error) {
	m := &streamMetrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "stream",
			Name:      "records_total",
			Help:      "Records decoded per transport",
		}, []string{"transport"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "stream",
			Name:      "errors_total",
			Help:      "Terminal stream errors per transport and kind",
		}, []string{"transport", "kind"}),
		open: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "stream",
			Name:      "open",
			Help:      "Streams currently open per transport",
		}, []string{"transport"}),
	}

	if err := registry.RegisterCounterVec("stream", "records", m.records); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("stream", "errors", m.errors); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec("stream", "open", m.open); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *streamMetrics) opened(t Transport) {
	if m != nil {
		m.open.WithLabelValues(string(t)).Inc()
	}
}

func (m *streamMetrics) closed(t Transport) {
	if m != nil {
		m.open.WithLabelValues(string(t)).Dec()
	}
}

func (m *streamMetrics) record(t Transport) {
	if m != nil {
		m.records.WithLabelValues(string(t)).Inc()
	}
}

func (m *streamMetrics) failure(t Transport, kind string) {
	if m != nil {
		m.errors.WithLabelValues(string(t), kind).Inc()
	}
}
