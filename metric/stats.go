package metric

import (
	"strings"

	dto "github.com/prometheus/client_model/go"

	"github.com/makalin/LiveWeave/errors"
)

// CounterTotals gathers the registry and sums every counter family whose
// name starts with prefix across its label sets.
func (r *MetricsRegistry) CounterTotals(prefix string) (map[string]float64, error) {
	families, err := r.prometheusRegistry.Gather()
	if err != nil {
		return nil, errors.WrapTransient(err, "MetricsRegistry", "CounterTotals", "gather metrics")
	}

	totals := make(map[string]float64)
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER || !strings.HasPrefix(family.GetName(), prefix) {
			continue
		}
		var sum float64
		for _, m := range family.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		totals[family.GetName()] = sum
	}
	return totals, nil
}

// ComponentCounters returns the counters labelled component=name, keyed by
// family name.
func (r *MetricsRegistry) ComponentCounters(name string) (map[string]float64, error) {
	families, err := r.prometheusRegistry.Gather()
	if err != nil {
		return nil, errors.WrapTransient(err, "MetricsRegistry", "ComponentCounters", "gather metrics")
	}

	counters := make(map[string]float64)
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "component" && label.GetValue() == name {
					counters[family.GetName()] += m.GetCounter().GetValue()
					break
				}
			}
		}
	}
	return counters, nil
}
