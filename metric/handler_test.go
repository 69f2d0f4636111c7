package metric

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HandlerServesMetricsAndExtraRoutes(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordError("stream", "parse")

	server := NewServer("127.0.0.1:0", "", registry)
	server.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `liveweave_errors_total{component="stream",kind="parse"} 1`)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))
}

func TestServer_StartStop(t *testing.T) {
	server := NewServer("127.0.0.1:0", "/metrics", NewMetricsRegistry())

	done := make(chan error, 1)
	go func() { done <- server.Start() }()

	require.Eventually(t, func() bool {
		return server.Address() != "127.0.0.1:0"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + server.Address() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	assert.NoError(t, <-done)
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	server := NewServer("127.0.0.1:0", "/metrics", nil)
	assert.Error(t, server.Start())
}

func TestServer_StopBeforeStart(t *testing.T) {
	server := NewServer("127.0.0.1:0", "/metrics", NewMetricsRegistry())
	require.NoError(t, server.Stop(context.Background()))
	assert.NoError(t, server.Start(), "a stopped server does not start serving")
}
