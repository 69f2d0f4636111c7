package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterTotals(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()
	core.RecordError("prices", "http")
	core.RecordError("prices", "http")
	core.RecordError("alerts", "parse")
	core.RecordNATSReconnect()

	totals, err := registry.CounterTotals(Namespace + "_errors")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"liveweave_errors_total": 3}, totals)

	all, err := registry.CounterTotals(Namespace + "_")
	require.NoError(t, err)
	assert.Equal(t, 1.0, all["liveweave_nats_reconnects_total"])
	assert.NotContains(t, all, "liveweave_nats_connected", "gauges are not counters")

	prices, err := registry.ComponentCounters("prices")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"liveweave_errors_total": 2}, prices)

	none, err := registry.ComponentCounters("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestServer_ExpositionParses(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordComponentStatus("prices", 2)
	registry.CoreMetrics().RecordError("prices", "connection")

	ts := httptest.NewServer(NewServer("127.0.0.1:0", "", registry).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(io.Reader(resp.Body))
	require.NoError(t, err)

	status := families["liveweave_component_status"]
	require.NotNil(t, status)
	assert.Equal(t, dto.MetricType_GAUGE, status.GetType())
	require.Len(t, status.GetMetric(), 1)
	assert.Equal(t, 2.0, status.GetMetric()[0].GetGauge().GetValue())

	errs := families["liveweave_errors_total"]
	require.NotNil(t, errs)
	assert.Equal(t, dto.MetricType_COUNTER, errs.GetType())

	assert.Contains(t, families, "go_goroutines")
}
