// Package metric provides the Prometheus registry shared by LiveWeave
// components and the HTTP server exposing it.
//
// Core metrics (component status, errors by kind, NATS health) are registered
// on construction. Components register their own collectors through
// MetricsRegistrar; registration is keyed by "service.metric" and duplicates
// are rejected:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(":9090", "/metrics", registry)
//	server.Handle("/healthz", healthHandler)
//	go server.Start()
//	defer server.Stop(ctx)
package metric
