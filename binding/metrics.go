package binding

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/makalin/LiveWeave/metric"
)

// Metrics counts binding activity. A nil *Metrics records nothing.
type Metrics struct {
	renders     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	skipped     *prometheus.CounterVec

	core *metric.Metrics
}

// NewMetrics registers binding metrics with registry. Per-binding state and
// errors go to the registry's core metrics, labelled by binding id.
func NewMetrics(registry *metric.MetricsRegistry) (*Metrics, error) {
	m := &Metrics{
		core: registry.CoreMetrics(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "binding",
			Name:      "renders_total",
			Help:      "Values rendered, by binding kind",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "binding",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions, by target state",
		}, []string{"state"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "binding",
			Name:      "errors_total",
			Help:      "Binding failures, by error kind",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "binding",
			Name:      "skipped_total",
			Help:      "Records not rendered, by reason",
		}, []string{"reason"}),
	}

	if err := registry.RegisterCounterVec("binding", "renders", m.renders); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("binding", "transitions", m.transitions); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("binding", "errors", m.errors); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("binding", "skipped", m.skipped); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) render(kind string) {
	if m != nil {
		m.renders.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) transition(id string, s State) {
	if m != nil {
		m.transitions.WithLabelValues(s.String()).Inc()
		m.core.RecordComponentStatus(id, int(s))
	}
}

func (m *Metrics) failure(id, kind string) {
	if m != nil {
		m.errors.WithLabelValues(kind).Inc()
		m.core.RecordError(id, kind)
	}
}

func (m *Metrics) skip(reason string) {
	if m != nil {
		m.skipped.WithLabelValues(reason).Inc()
	}
}
