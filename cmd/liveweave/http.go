package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/makalin/LiveWeave/binding"
	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/health"
	"github.com/makalin/LiveWeave/metric"
	"github.com/makalin/LiveWeave/signal"
)

const maxSignalBody = 1 << 20

// mountRoutes adds the control routes next to /metrics.
func mountRoutes(
	srv *metric.Server, registry *metric.MetricsRegistry, runner *binding.Runner,
	bus *signal.Bus, monitor *health.Monitor, logger *slog.Logger,
) {
	srv.Handle("GET /healthz", healthHandler(runner, monitor))
	srv.Handle("GET /stats", statsHandler(registry, runner))
	srv.Handle("GET /signals/{name}", getSignalHandler(bus))
	srv.Handle("POST /signals", postSignalHandler(bus, logger))
}

// healthHandler serves the aggregate of the monitored connections and every
// binding. A binding in error degrades the process; only an unhealthy
// dependency answers 503.
func healthHandler(runner *binding.Runner, monitor *health.Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		overall := health.Aggregate("liveweave", append(monitor.List(), bindingHealth(runner)...))
		status := http.StatusOK
		if overall.IsUnhealthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, overall)
	})
}

func bindingHealth(runner *binding.Runner) []health.Status {
	var out []health.Status
	for _, st := range runner.Status() {
		if st.State == binding.StateError {
			out = append(out, health.FromError(st.ID, errors.New(st.Error), ""))
			continue
		}
		out = append(out, health.NewHealthy(st.ID, st.State.String()))
	}
	return out
}

type statsResponse struct {
	Counters map[string]float64            `json:"counters"`
	Bindings map[string]map[string]float64 `json:"bindings"`
}

// statsHandler summarises the LiveWeave counters, overall and per binding.
func statsHandler(registry *metric.MetricsRegistry, runner *binding.Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		totals, err := registry.CounterTotals(metric.Namespace + "_")
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp := statsResponse{Counters: totals, Bindings: make(map[string]map[string]float64)}
		for _, st := range runner.Status() {
			counters, err := registry.ComponentCounters(st.ID)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			resp.Bindings[st.ID] = counters
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func getSignalHandler(bus *signal.Bus) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		value, ok := bus.Get(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown signal " + name})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "value": value})
	})
}

// postSignalHandler applies one wire-format operation to the bus.
func postSignalHandler(bus *signal.Bus, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSignalBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		msg, err := signal.DecodeMessage(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signal message: " + err.Error()})
			return
		}
		if msg.Op == "" {
			msg.Op = signal.OpSet
		}

		if err := bus.Apply(msg.Name, msg.Op, msg.Value); err != nil {
			status := http.StatusBadRequest
			if !errors.Is(err, signal.ErrNoName) && !errors.Is(err, signal.ErrUnknownOp) {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		logger.Debug("signal applied over HTTP", "signal", msg.Name, "op", msg.Op)
		value, _ := bus.Get(msg.Name)
		writeJSON(w, http.StatusOK, map[string]any{"name": msg.Name, "value": value})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
